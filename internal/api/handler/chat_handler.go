package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"recruit-track-go/internal/chat"
	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ChatHandler 聊天接口处理器。
// 调用方身份来自keyauth解析出的角色，一个API key对应一个用户会话。
type ChatHandler struct {
	relay *chat.Relay
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(relay *chat.Relay) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// userID 聊天历史按调用方隔离，用角色名作为用户标识
func userID(c *app.RequestContext) string {
	if role := CallerRole(c); role != "" {
		return role
	}
	return "anonymous"
}

// Send POST /chat/messages
func (h *ChatHandler) Send(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}

	uid := userID(c)
	logger.Debug().Str("user_id", uid).
		Str("message", tracing.SafeChatContent(req.Message)).
		Msg("转发聊天消息")

	reply, err := h.relay.SendMessage(ctx, uid, req.Message)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, reply)
}

// History GET /chat/messages
func (h *ChatHandler) History(ctx context.Context, c *app.RequestContext) {
	rows, err := h.relay.History(ctx, userID(c))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, rows)
}

// Clear DELETE /chat/messages
// 只清空调用方自己的历史。
func (h *ChatHandler) Clear(ctx context.Context, c *app.RequestContext) {
	if err := h.relay.ClearHistory(ctx, userID(c)); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"cleared": true})
}

// TriggerEmail POST /automation/email
// 触发外部"邮件助手"webhook。
func (h *ChatHandler) TriggerEmail(ctx context.Context, c *app.RequestContext) {
	if err := h.relay.TriggerEmailAssistant(ctx); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"triggered": true})
}
