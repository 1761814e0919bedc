// Package repo 提供按实体类型划分的类型化仓储。
//
// 所有仓储共享同一个查询缓存（组合根构造时注入，而不是包级全局状态），
// 并遵守统一的写入协议：实体写入与发件箱行在同一事务中提交，事务成功后
// 同步使该实体类型的缓存失效，依赖的读取随之重新拉取。
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"

	"gorm.io/gorm"
)

// Repository 仓储聚合，组合根持有并向下分发
type Repository struct {
	Candidates    *CandidateRepository
	Posts         *PostRepository
	Recruiters    *RecruiterRepository
	Interviews    *InterviewRepository
	Notifications *NotificationRepository
	Chat          *ChatRepository
	Settings      *SettingRepository
}

// New 创建仓储聚合。qc为查询缓存，所有仓储共享同一实例。
func New(db *gorm.DB, qc cache.QueryCache) *Repository {
	b := &base{db: db, cache: qc}
	return &Repository{
		Candidates:    &CandidateRepository{base: b},
		Posts:         &PostRepository{base: b},
		Recruiters:    &RecruiterRepository{base: b},
		Interviews:    &InterviewRepository{base: b},
		Notifications: &NotificationRepository{base: b},
		Chat:          &ChatRepository{base: b},
		Settings:      &SettingRepository{base: b},
	}
}

// base 仓储公共部分：数据库连接、查询缓存、写入协议辅助方法
type base struct {
	db    *gorm.DB
	cache cache.QueryCache
}

// appendOutbox 在当前事务中追加一条实体变更事件。
// 事件随事务一起提交，由发件箱中继异步发布。
func (b *base) appendOutbox(tx *gorm.DB, kind, action, entityID, summary string) error {
	msg := storage.EntityChangeMessage{
		Kind:       kind,
		Action:     action,
		EntityID:   entityID,
		Summary:    summary,
		OccurredAt: time.Now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化变更事件失败: %w", err)
	}
	row := models.OutboxMessage{
		AggregateID:      entityID,
		EventType:        kind + "." + action,
		Payload:          string(payload),
		TargetExchange:   constants.EntityEventsExchange,
		TargetRoutingKey: kind + "." + action,
	}
	return tx.Create(&row).Error
}

// invalidate 使一个或多个实体类型的缓存失效。
// 只在写事务确认成功之后调用；失败的写入绝不触碰缓存。
func (b *base) invalidate(ctx context.Context, kinds ...string) {
	for _, kind := range kinds {
		if err := b.cache.Invalidate(ctx, kind); err != nil {
			logger.Error().Err(err).Str("kind", kind).Msg("缓存失效失败")
		}
	}
}

// cachedList 查询缓存读路径的公共骨架：命中直接反序列化返回，
// 未命中执行fetch，成功后回填缓存。fetch失败时缓存保持原样。
func cachedList[T any](ctx context.Context, b *base, key cache.Key, fetch func() ([]T, error)) ([]T, error) {
	if payload, ok := b.cache.GetList(ctx, key); ok {
		var rows []T
		if err := json.Unmarshal(payload, &rows); err == nil {
			return rows, nil
		}
		// 缓存内容损坏时按未命中处理
		logger.Warn().Str("kind", key.Kind).Msg("缓存条目反序列化失败，回退到存储层")
	}

	rows, err := fetch()
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(rows); err == nil {
		b.cache.SetList(ctx, key, payload)
	}
	return rows, nil
}
