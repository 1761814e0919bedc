package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Post 职位表
type Post struct {
	PostID      string    `gorm:"type:char(36);primaryKey"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Location    string    `gorm:"type:varchar(255)"`
	Enterprise  string    `gorm:"type:varchar(255)"`
	Department  string    `gorm:"type:varchar(255)"`
	PostStatus  string    `gorm:"type:varchar(50);default:'Open';index:idx_posts_status"`
	CreatedAt   time.Time `gorm:"type:datetime(6);autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);autoUpdateTime"`
}

func (Post) TableName() string {
	return "posts"
}

// Recruiter 招聘官表
type Recruiter struct {
	RecruiterID string    `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_recruiters_email_unique"`
	Phone       string    `gorm:"type:varchar(50)"`
	Role        string    `gorm:"type:varchar(255)"` // 自由文本，例如 "Tech Recruiter"
	CreatedAt   time.Time `gorm:"type:datetime(6);autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);autoUpdateTime"`
}

func (Recruiter) TableName() string {
	return "recruiters"
}

// Candidate 候选人主表
// 业务规则上email唯一，但与来源系统一致，不在schema层强制。
// PostID为弱引用：职位删除时级联删除其候选人（可接受的数据损失）。
type Candidate struct {
	CandidateID        string         `gorm:"type:char(36);primaryKey"`
	Name               string         `gorm:"type:varchar(255);not null"`
	Email              string         `gorm:"type:varchar(255);not null;index:idx_candidates_email"`
	Phone              string         `gorm:"type:varchar(50)"`
	LinkedinURL        string         `gorm:"type:varchar(1024)"`
	CVURL              string         `gorm:"type:varchar(1024)"`
	ProfileSummary     string         `gorm:"type:text"`
	DesiredPosition    string         `gorm:"type:varchar(255)"`
	ApplicationStatus  string         `gorm:"type:varchar(50);default:'To Be Reviewed';index:idx_candidates_status"`
	RelevanceScore     *int           `gorm:"type:int"` // 统一0-100分制
	ScoreJustification string         `gorm:"type:text"`
	Experiences        datatypes.JSON `gorm:"type:json"`
	Degrees            datatypes.JSON `gorm:"type:json"`
	Skills             datatypes.JSON `gorm:"type:json"`
	Certifications     datatypes.JSON `gorm:"type:json"`
	PostID             *string        `gorm:"type:char(36);index:idx_candidates_post_id"`
	RecruiterID        *string        `gorm:"type:char(36);index:idx_candidates_recruiter_id"`
	AppliedAt          time.Time      `gorm:"type:datetime(6);autoCreateTime;index:idx_candidates_applied_at"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);autoUpdateTime"`

	Post      *Post      `gorm:"foreignKey:PostID;references:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recruiter *Recruiter `gorm:"foreignKey:RecruiterID;references:RecruiterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// Interview 面试表
// 三个外键全部必填：没有候选人、招聘官和职位的面试不允许存在。
type Interview struct {
	InterviewID     string    `gorm:"type:char(36);primaryKey"`
	CandidateID     string    `gorm:"type:char(36);not null;index:idx_interviews_candidate_id"`
	RecruiterID     string    `gorm:"type:char(36);not null;index:idx_interviews_recruiter_id"`
	PostID          string    `gorm:"type:char(36);not null;index:idx_interviews_post_id"`
	ScheduledAt     time.Time `gorm:"type:datetime(6);not null;index:idx_interviews_scheduled_at"`
	Location        string    `gorm:"type:varchar(255)"`
	InterviewStatus string    `gorm:"type:varchar(50);default:'Scheduled';index:idx_interviews_status"`
	Feedback        string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"type:datetime(6);autoCreateTime"`
	UpdatedAt       time.Time `gorm:"type:datetime(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recruiter *Recruiter `gorm:"foreignKey:RecruiterID;references:RecruiterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Post      *Post      `gorm:"foreignKey:PostID;references:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Interview) TableName() string {
	return "interviews"
}

// Notification 通知表，仅追加，正常流程中从不修改或删除
type Notification struct {
	NotificationID string    `gorm:"type:char(36);primaryKey"`
	ItemType       string    `gorm:"type:varchar(50);not null;index:idx_notifications_item_type"`
	ItemID         *string   `gorm:"type:char(36)"`
	Message        string    `gorm:"type:varchar(512);not null"`
	CreatedAt      time.Time `gorm:"type:datetime(6);autoCreateTime;index:idx_notifications_created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ChatMessage 聊天消息表，按用户仅追加
type ChatMessage struct {
	MessageID string    `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(255);not null;index:idx_chat_messages_user_id"`
	Role      string    `gorm:"type:varchar(20);not null"` // "user" 或 "assistant"
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:datetime(6);autoCreateTime;index:idx_chat_messages_created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// AppSetting 通用应用设置表，按 (setting_category, setting_key) 定位。
// Chat Relay 的webhook地址和"邮件助手"触发器地址存放在这里。
type AppSetting struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	SettingCategory string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_app_settings_category_key,priority:1"`
	SettingKey      string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_app_settings_category_key,priority:2"`
	SettingValue    string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"type:datetime(6);autoCreateTime"`
	UpdatedAt       time.Time `gorm:"type:datetime(6);autoUpdateTime"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}

// StringSliceToJSON 将字符串切片转换为datatypes.JSON
func StringSliceToJSON(values []string) (datatypes.JSON, error) {
	bytes, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// MapToJSON 将map转换为datatypes.JSON
func MapToJSON(m map[string]interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
