// Package cache 实现按 {实体类型, 过滤条件} 寻址的查询缓存。
//
// 失效按实体类型整体进行：任何一次成功写入都使该类型的全部缓存查询失效，
// 用精度换取正确性（集合规模小，代价可以接受）。失效通过递增类型版本号
// 完成，旧版本条目靠TTL自然淘汰，不需要SCAN。
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"

	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/storage"
)

// Key 缓存键：实体类型 + 规范化后的过滤条件描述
type Key struct {
	Kind   string // 实体类型，例如 constants.KindCandidate
	Filter string // 过滤条件的规范化字符串表示，空串表示无过滤
}

// filterDigest 过滤条件的摘要，避免把任意长度的过滤串拼进Redis键
func (k Key) filterDigest() string {
	sum := md5.Sum([]byte(k.Filter))
	return hex.EncodeToString(sum[:])
}

// QueryCache 查询缓存。
// GetList返回 (上次缓存的值, 是否命中)；后端故障一律按未命中处理，
// 绝不让缓存故障阻断读路径。
type QueryCache interface {
	GetList(ctx context.Context, key Key) ([]byte, bool)
	SetList(ctx context.Context, key Key, payload []byte)
	// Invalidate 使kind的全部缓存条目立即失效，与触发它的写操作同步完成
	Invalidate(ctx context.Context, kind string) error
}

// ---------------------------------------------------------------------------
// Redis实现

// RedisQueryCache 基于Redis的查询缓存，进程间共享
type RedisQueryCache struct {
	redis *storage.Redis
}

var _ QueryCache = (*RedisQueryCache)(nil)

// NewRedisQueryCache 创建Redis查询缓存
func NewRedisQueryCache(r *storage.Redis) *RedisQueryCache {
	return &RedisQueryCache{redis: r}
}

func (c *RedisQueryCache) entryKey(ctx context.Context, key Key) (string, error) {
	version, err := c.redis.GetInt64(ctx, fmt.Sprintf(constants.KeyQueryCacheVersion, key.Kind))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(constants.KeyQueryCacheEntry, key.Kind, version, key.filterDigest()), nil
}

// GetList 读取缓存条目
func (c *RedisQueryCache) GetList(ctx context.Context, key Key) ([]byte, bool) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("kind", key.Kind).Msg("读取缓存版本号失败，按未命中处理")
		return nil, false
	}
	val, err := c.redis.Get(ctx, entryKey)
	if err != nil {
		if err != storage.ErrNotFound {
			logger.Warn().Err(err).Str("key", entryKey).Msg("读取缓存条目失败，按未命中处理")
		}
		return nil, false
	}
	return []byte(val), true
}

// SetList 写入缓存条目。只应在一次成功的存储层读取之后调用，
// 这样失败的读取永远不会污染缓存。
func (c *RedisQueryCache) SetList(ctx context.Context, key Key, payload []byte) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("kind", key.Kind).Msg("读取缓存版本号失败，放弃写入缓存")
		return
	}
	if err := c.redis.Set(ctx, entryKey, string(payload), constants.QueryCacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", entryKey).Msg("写入缓存条目失败")
	}
}

// Invalidate 递增kind的版本号，使该类型的所有缓存键立即失效
func (c *RedisQueryCache) Invalidate(ctx context.Context, kind string) error {
	_, err := c.redis.Incr(ctx, fmt.Sprintf(constants.KeyQueryCacheVersion, kind))
	if err != nil {
		return fmt.Errorf("递增缓存版本号失败 (kind=%s): %w", kind, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// 进程内实现

// MemoryQueryCache 进程内查询缓存。
// Redis未配置时的降级实现，语义与Redis版一致（按类型版本号失效）。
type MemoryQueryCache struct {
	mu       sync.RWMutex
	versions map[string]int64
	entries  map[string][]byte
}

var _ QueryCache = (*MemoryQueryCache)(nil)

// NewMemoryQueryCache 创建进程内查询缓存
func NewMemoryQueryCache() *MemoryQueryCache {
	return &MemoryQueryCache{
		versions: make(map[string]int64),
		entries:  make(map[string][]byte),
	}
}

func (c *MemoryQueryCache) entryKey(key Key) string {
	return fmt.Sprintf(constants.KeyQueryCacheEntry, key.Kind, c.versions[key.Kind], key.filterDigest())
}

// GetList 读取缓存条目
func (c *MemoryQueryCache) GetList(_ context.Context, key Key) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.entries[c.entryKey(key)]
	return payload, ok
}

// SetList 写入缓存条目
func (c *MemoryQueryCache) SetList(_ context.Context, key Key, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.entryKey(key)] = payload
}

// Invalidate 使kind的全部缓存条目失效
func (c *MemoryQueryCache) Invalidate(_ context.Context, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[kind]++
	// 旧版本条目顺手清理掉，进程内没有TTL兜底
	prefix := fmt.Sprintf(constants.KeyQueryCacheEntry, kind, c.versions[kind]-1, "")
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	return nil
}
