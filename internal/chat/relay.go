// Package chat 实现聊天中继：把用户消息转发给外部助手webhook，
// 逐轮持久化对话双方的消息。助手的推理过程对本系统完全不透明。
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recruit-track-go/internal/config"
	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage/models"
)

// apologyMessage 助手不可达时本地合成的回复，不重试
const apologyMessage = "Sorry, I couldn't reach the assistant right now. Please try again in a moment."

// 响应体大小上限，助手回复是对话文本，1MB绰绰有余
const maxResponseBytes = 1 << 20

// Relay 聊天中继
type Relay struct {
	messages *repo.ChatRepository
	settings *repo.SettingRepository
	client   *http.Client

	// 设置表中没有配置时的回退地址
	defaultChatURL  string
	defaultEmailURL string
}

// NewRelay 创建聊天中继
func NewRelay(messages *repo.ChatRepository, settings *repo.SettingRepository, cfg *config.WebhookConfig) *Relay {
	timeout := 15 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Relay{
		messages:        messages,
		settings:        settings,
		client:          &http.Client{Timeout: timeout},
		defaultChatURL:  cfg.ChatAssistantURL,
		defaultEmailURL: cfg.EmailAssistantURL,
	}
}

// resolveWebhook 解析webhook地址：设置表优先，未配置时回退到配置文件
func (r *Relay) resolveWebhook(ctx context.Context, settingKey, fallback string) string {
	value, err := r.settings.Get(ctx, constants.SettingCategoryWebhooks, settingKey)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logger.Warn().Err(err).Str("key", settingKey).Msg("读取webhook设置失败，使用配置文件地址")
		}
		return fallback
	}
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// SendMessage 发送一条用户消息并返回助手回复。
// 用户消息先落库；助手不可达时合成道歉回复并照常落库，
// 调用方拿到的永远是一条已持久化的assistant消息。
func (r *Relay) SendMessage(ctx context.Context, userID, content string) (*models.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: 消息内容不能为空", repo.ErrValidation)
	}

	userMsg := models.ChatMessage{
		UserID:  userID,
		Role:    models.ChatRoleUser,
		Content: content,
	}
	if err := r.messages.Append(ctx, &userMsg); err != nil {
		return nil, err
	}

	replyContent, err := r.callAssistant(ctx, content)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("聊天助手调用失败，合成道歉回复")
		replyContent = apologyMessage
	}

	reply := models.ChatMessage{
		UserID:  userID,
		Role:    models.ChatRoleAssistant,
		Content: replyContent,
	}
	if err := r.messages.Append(ctx, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// callAssistant 调用助手webhook：GET，消息作为URL编码的查询参数。
// 响应体是纯文本或JSON字符串，一律当作不透明文本处理。
func (r *Relay) callAssistant(ctx context.Context, message string) (string, error) {
	endpoint := r.resolveWebhook(ctx, constants.SettingKeyChatAssistant, r.defaultChatURL)
	if endpoint == "" {
		return "", fmt.Errorf("%w: 聊天助手webhook未配置", repo.ErrTransport)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: 聊天助手webhook地址非法: %v", repo.ErrTransport, err)
	}
	q := u.Query()
	q.Set("message", message)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: 构造助手请求失败: %v", repo.ErrTransport, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: 调用聊天助手失败: %v", repo.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: 聊天助手返回状态码 %d", repo.ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: 读取助手响应失败: %v", repo.ErrTransport, err)
	}

	text := strings.TrimSpace(string(body))
	// JSON字符串形式的响应解开一层引号，其余原样透传
	if strings.HasPrefix(text, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(text), &unquoted); err == nil {
			return unquoted, nil
		}
	}
	return text, nil
}

// History 返回用户的完整会话历史，时间正序
func (r *Relay) History(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	return r.messages.ListByUser(ctx, userID)
}

// ClearHistory 清空调用方自己的会话历史
func (r *Relay) ClearHistory(ctx context.Context, userID string) error {
	return r.messages.ClearHistory(ctx, userID)
}

// TriggerEmailAssistant 触发"邮件助手"自动化webhook：POST空请求体，
// 任何2xx视为成功。
func (r *Relay) TriggerEmailAssistant(ctx context.Context) error {
	endpoint := r.resolveWebhook(ctx, constants.SettingKeyEmailTrigger, r.defaultEmailURL)
	if endpoint == "" {
		return fmt.Errorf("%w: 邮件助手webhook未配置", repo.ErrTransport)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: 构造邮件助手请求失败: %v", repo.ErrTransport, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: 调用邮件助手失败: %v", repo.ErrTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: 邮件助手返回状态码 %d", repo.ErrTransport, resp.StatusCode)
	}
	return nil
}
