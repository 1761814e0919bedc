// Package notify 实现通知管道的两端：
// Capture 消费实体变更事件并落地通知行（存储侧的变更捕获），
// Feed 维护每会话的未读标志与内存日志（会话侧的实时订阅）。
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"
)

// Capture 订阅实体变更事件，把"新增"类事件转成通知表里的一行，
// 并广播通知创建事件供在线会话实时消费。
// 事件投递是至少一次，偶发的重复通知可以接受。
type Capture struct {
	mq            *storage.RabbitMQ
	notifications *repo.NotificationRepository
	prefetch      int
	stopCh        chan<- struct{}
}

// NewCapture 创建变更捕获器
func NewCapture(mq *storage.RabbitMQ, notifications *repo.NotificationRepository, prefetch int) *Capture {
	if prefetch <= 0 {
		prefetch = 10
	}
	return &Capture{
		mq:            mq,
		notifications: notifications,
		prefetch:      prefetch,
	}
}

// Start 声明拓扑并启动消费。幂等的拓扑声明允许与其他组件并存。
func (c *Capture) Start() error {
	if err := c.mq.EnsureExchange(constants.EntityEventsExchange, "topic", true); err != nil {
		return fmt.Errorf("声明实体事件exchange失败: %w", err)
	}
	if err := c.mq.EnsureExchange(constants.NotificationEventsExchange, "topic", true); err != nil {
		return fmt.Errorf("声明通知事件exchange失败: %w", err)
	}
	if err := c.mq.EnsureQueue(constants.EntityChangesQueue, true); err != nil {
		return fmt.Errorf("声明实体变更队列失败: %w", err)
	}
	if err := c.mq.BindQueue(constants.EntityChangesQueue, constants.EntityEventsExchange, constants.EntityChangesBindingKey); err != nil {
		return fmt.Errorf("绑定实体变更队列失败: %w", err)
	}

	stopCh, err := c.mq.StartConsumer(constants.EntityChangesQueue, c.prefetch, c.handle)
	if err != nil {
		return fmt.Errorf("启动变更捕获消费者失败: %w", err)
	}
	c.stopCh = stopCh
	logger.Info().Msg("通知变更捕获器已启动")
	return nil
}

// Stop 停止消费
func (c *Capture) Stop() {
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
}

// handle 处理一条实体变更事件。返回true表示ack，false表示nack重新入队。
func (c *Capture) handle(body []byte) bool {
	var event storage.EntityChangeMessage
	if err := json.Unmarshal(body, &event); err != nil {
		// 格式错误的消息重投也不会成功，直接ack丢弃
		logger.Error().Err(err).Msg("实体变更事件反序列化失败，丢弃")
		return true
	}

	// 只有新增事件产生通知；更新和删除事件被其他订阅方使用
	if event.Action != constants.ActionCreated {
		return true
	}

	ctx := context.Background()
	itemID := event.EntityID
	notification := models.Notification{
		ItemType: event.Kind,
		ItemID:   &itemID,
		Message:  event.Summary,
	}
	if err := c.notifications.Append(ctx, &notification); err != nil {
		logger.Error().Err(err).Str("kind", event.Kind).Str("entity_id", event.EntityID).
			Msg("写入通知失败，消息重新入队")
		return false
	}

	notifEvent := storage.NotificationEventMessage{
		NotificationID: notification.NotificationID,
		ItemType:       notification.ItemType,
		ItemID:         notification.ItemID,
		Message:        notification.Message,
		CreatedAt:      notification.CreatedAt,
	}
	if err := c.mq.PublishJSON(ctx, constants.NotificationEventsExchange,
		constants.NotificationCreatedRoutingKey, notifEvent, false); err != nil {
		// 通知行已落库，广播失败只影响在线会话的实时性，不重投
		logger.Warn().Err(err).Str("notification_id", notification.NotificationID).
			Msg("广播通知事件失败")
	}

	return true
}
