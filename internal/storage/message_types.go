package storage

import "time"

// EntityChangeMessage 实体变更事件消息，由发件箱中继发布到实体事件交换机
type EntityChangeMessage struct {
	Kind       string    `json:"kind"`                  // 实体类型: candidate/post/recruiter/interview
	Action     string    `json:"action"`                // created/updated/deleted
	EntityID   string    `json:"entity_id"`             // 实体主键
	Summary    string    `json:"summary,omitempty"`     // 人类可读的摘要，用于生成通知文案
	OccurredAt time.Time `json:"occurred_at"`           // 变更发生时间
	ActorRole  string    `json:"actor_role,omitempty"`  // 发起变更的调用方角色
}

// NotificationEventMessage 通知新增事件，由变更捕获服务发布，Feed会话订阅
type NotificationEventMessage struct {
	NotificationID string    `json:"notification_id"`
	ItemType       string    `json:"item_type"`
	ItemID         *string   `json:"item_id,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}
