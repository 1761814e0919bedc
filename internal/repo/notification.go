package repo

import (
	"context"
	"fmt"

	"recruit-track-go/internal/storage/models"

	"github.com/gofrs/uuid/v5"
)

// NotificationRepository 通知仓储。通知表仅追加，
// 不经过查询缓存：通知由事件管道持续产生，缓存命中窗口太短不划算。
type NotificationRepository struct {
	*base
}

// Append 追加一条通知。由事件捕获器调用，不走发件箱
// （通知自身的产生就是对变更事件的消费，再发事件会成环）。
func (r *NotificationRepository) Append(ctx context.Context, n *models.Notification) error {
	if n.Message == "" {
		return validationError("通知内容不能为空")
	}
	if n.NotificationID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成通知ID失败: %w", err)
		}
		n.NotificationID = id.String()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("写入通知失败: %w", translateStoreError(err))
	}
	return nil
}

// List 查询最近limit条通知，最新在前。limit<=0时取默认50条。
func (r *NotificationRepository) List(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Notification
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询通知列表失败: %w", translateStoreError(err))
	}
	return rows, nil
}
