package handler

import (
	"context"
	"fmt"
	"strconv"

	"recruit-track-go/internal/notify"
	"recruit-track-go/internal/repo"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// NotificationHandler 通知接口处理器。
// feed可为nil（RabbitMQ未配置时），此时只有持久日志可用，未读标志恒为false。
type NotificationHandler struct {
	notifications *repo.NotificationRepository
	feed          *notify.Feed
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notifications *repo.NotificationRepository, feed *notify.Feed) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, feed: feed}
}

func parseLimit(c *app.RequestContext) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit参数非法: %s", repo.ErrValidation, raw)
	}
	return limit, nil
}

// Unseen GET /notifications/unseen
func (h *NotificationHandler) Unseen(ctx context.Context, c *app.RequestContext) {
	unseen := false
	if h.feed != nil {
		unseen = h.feed.Unseen()
	}
	c.JSON(consts.StatusOK, utils.H{"unseen": unseen})
}

// Open POST /notifications/open
// 进入通知视图：清除未读标志并返回持久日志（最新在前）。
func (h *NotificationHandler) Open(ctx context.Context, c *app.RequestContext) {
	limit, err := parseLimit(c)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	if h.feed != nil {
		rows, err := h.feed.OpenNotificationsView(ctx, limit)
		if err != nil {
			writeError(ctx, c, err)
			return
		}
		c.JSON(consts.StatusOK, rows)
		return
	}

	rows, err := h.notifications.List(ctx, limit)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, rows)
}

// Leave POST /notifications/leave
// 离开通知视图，此后新通知重新点亮未读标志。
func (h *NotificationHandler) Leave(ctx context.Context, c *app.RequestContext) {
	if h.feed != nil {
		h.feed.LeaveNotificationsView()
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true})
}

// List GET /notifications
// 只读持久日志，不触碰会话的未读状态。
func (h *NotificationHandler) List(ctx context.Context, c *app.RequestContext) {
	limit, err := parseLimit(c)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	rows, err := h.notifications.List(ctx, limit)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, rows)
}
