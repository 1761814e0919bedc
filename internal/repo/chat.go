package repo

import (
	"context"
	"fmt"

	"recruit-track-go/internal/storage/models"

	"github.com/gofrs/uuid/v5"
)

// ChatRepository 聊天消息仓储，按用户维护仅追加的会话历史
type ChatRepository struct {
	*base
}

// Append 追加一条聊天消息
func (r *ChatRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	if msg.UserID == "" {
		return validationError("聊天消息必须关联用户")
	}
	if msg.Role != models.ChatRoleUser && msg.Role != models.ChatRoleAssistant {
		return validationError("未知的消息角色: %s", msg.Role)
	}
	if msg.Content == "" {
		return validationError("消息内容不能为空")
	}
	if msg.MessageID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成消息ID失败: %w", err)
		}
		msg.MessageID = id.String()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("写入聊天消息失败: %w", translateStoreError(err))
	}
	return nil
}

// ListByUser 按时间正序返回某用户的全部会话历史
func (r *ChatRepository) ListByUser(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户 %s 聊天历史失败: %w", userID, translateStoreError(err))
	}
	return rows, nil
}

// ClearHistory 清空某用户的全部会话历史
func (r *ChatRepository) ClearHistory(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ChatMessage{}).Error
	if err != nil {
		return fmt.Errorf("清空用户 %s 聊天历史失败: %w", userID, translateStoreError(err))
	}
	return nil
}
