package constants

import "time"

// 实体类型标识，作为缓存键、变更事件路由键和通知 item_type 的统一命名
const (
	KindCandidate = "candidate"
	KindPost      = "post"
	KindRecruiter = "recruiter"
	KindInterview = "interview"
)

// 变更动作，与实体类型组合成路由键，例如 "candidate.created"
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RabbitMQ 交换机/队列/路由键
const (
	// EntityEventsExchange 实体变更事件交换机 (topic)
	EntityEventsExchange = "recruit.entity.events"
	// EntityChangesQueue 变更捕获消费者使用的队列，订阅所有实体的insert事件
	EntityChangesQueue = "recruit.entity.changes"
	// EntityChangesBindingKey 绑定所有 "<kind>.<action>" 路由键
	EntityChangesBindingKey = "#"

	// NotificationEventsExchange 通知事件交换机 (topic)，Feed会话从这里订阅
	NotificationEventsExchange = "recruit.notification.events"
	// NotificationCreatedRoutingKey 通知新增事件的路由键
	NotificationCreatedRoutingKey = "notification.created"
)

// Redis 缓存键
// 命名规范: app:{module}:{entity}:{...}
const (
	// AppPrefix 所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// QueryCacheModulePrefix 查询缓存模块
	QueryCacheModulePrefix = "qcache"

	// KeyQueryCacheVersion 某实体类型的缓存版本号 (STRING, INCR失效)
	// 格式: app:qcache:ver:{kind}
	KeyQueryCacheVersion = AppPrefix + ":" + QueryCacheModulePrefix + ":ver:%s"

	// KeyQueryCacheEntry 某一次列表查询的缓存条目 (STRING, JSON)
	// 格式: app:qcache:{kind}:v{version}:{filterMD5}
	KeyQueryCacheEntry = AppPrefix + ":" + QueryCacheModulePrefix + ":%s:v%d:%s"

	// QueryCacheTTL 缓存条目的过期时间。失效通过版本号递增完成，
	// 旧版本条目靠TTL自然淘汰。
	QueryCacheTTL = 10 * time.Minute
)

// 应用设置表中的分类与键 (webhook地址等)
const (
	SettingCategoryWebhooks = "webhooks"
	SettingKeyChatAssistant = "chat_assistant"
	SettingKeyEmailTrigger  = "email_assistant"
)

// MinIO 对象存储
const (
	// CVObjectPrefix 候选人简历文件在桶内的对象前缀
	CVObjectPrefix = "cv"
)
