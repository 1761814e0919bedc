// Package outbox 实现发件箱模式：实体写入与事件行在同一事务提交，
// 中继异步轮询并发布到消息代理，保证变更事件至少一次送达。
package outbox

import (
	"context"
	"log"
	"time"

	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// MessageRelay 轮询outbox表并把待发消息发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       storage.MessageQueue
	logger          *log.Logger
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	tracer          trace.Tracer
}

// NewMessageRelay 创建消息中继
func NewMessageRelay(db *gorm.DB, publisher storage.MessageQueue, logger *log.Logger) *MessageRelay {
	return &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          logger,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("outbox-relay"),
	}
}

// Start 启动后台轮询
func (r *MessageRelay) Start() {
	r.logger.Println("MessageRelay starting...")
	ticker := time.NewTicker(r.pollingInterval)

	go func() {
		for {
			select {
			case <-r.done:
				ticker.Stop()
				r.logger.Println("MessageRelay stopped.")
				return
			case <-ticker.C:
				if err := r.processPendingMessages(context.Background()); err != nil {
					r.logger.Printf("Error processing pending messages: %v", err)
				}
			}
		}
	}()
}

// Stop 优雅停止中继
func (r *MessageRelay) Stop() {
	r.logger.Println("MessageRelay stopping...")
	close(r.done)
}

// processPendingMessages 取一批PENDING消息发布并更新状态。
// FOR UPDATE SKIP LOCKED 让多实例可以并行消费而不互相阻塞。
func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", "PENDING").
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		r.logger.Printf("Failed to fetch pending outbox messages: %v", err)
		return err
	}

	// 空轮询不创建追踪Span
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(
			attribute.Int("messaging.batch.message_count", len(messages)),
		),
	)
	defer span.End()

	for _, msg := range messages {
		err := r.publisher.PublishMessage(
			ctx,
			msg.TargetExchange,
			msg.TargetRoutingKey,
			[]byte(msg.Payload),
			true, // 持久化投递
		)

		if err != nil {
			r.logger.Printf("Failed to publish message ID %d (AggregateID: %s): %v. Retries: %d", msg.ID, msg.AggregateID, err, msg.RetryCount+1)
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= maxRetryCount {
				msg.Status = "FAILED"
			}
		} else {
			msg.Status = "SENT"
			now := time.Now()
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}

		// 状态更新失败时整个事务回滚，消息留待下次轮询重新拾取
		if err := tx.Save(&msg).Error; err != nil {
			r.logger.Printf("Failed to update outbox message ID %d: %v", msg.ID, err)
			return err
		}
	}

	return tx.Commit().Error
}
