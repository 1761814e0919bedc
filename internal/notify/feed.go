package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"
)

// Feed 实时通知feed：维护每会话的未读标志和仅追加的内存日志。
//
// 这是一个由组合根持有、Start/Stop显式控制生命周期的服务，
// 不附着在任何视图上。订阅断开后按指数退避自动重连；
// 世代计数器保证重启后迟到的旧投递不会污染新会话的状态。
// feed只是在线活跃指示器，持久日志是通知表本身，按需读取。
type Feed struct {
	mq            *storage.RabbitMQ
	notifications *repo.NotificationRepository
	baseDelay     time.Duration
	maxDelay      time.Duration

	mu         sync.Mutex
	unseen     bool
	viewing    bool // 会话当前是否停留在通知视图
	sessionLog []storage.NotificationEventMessage
	generation uint64
	running    bool
	stop       chan struct{}
	wg         sync.WaitGroup
}

// NewFeed 创建通知feed。退避参数为毫秒，非法值回落到默认值。
func NewFeed(mq *storage.RabbitMQ, notifications *repo.NotificationRepository, baseDelayMS, maxDelayMS int) *Feed {
	if baseDelayMS <= 0 {
		baseDelayMS = 500
	}
	if maxDelayMS < baseDelayMS {
		maxDelayMS = baseDelayMS * 16
	}
	return &Feed{
		mq:            mq,
		notifications: notifications,
		baseDelay:     time.Duration(baseDelayMS) * time.Millisecond,
		maxDelay:      time.Duration(maxDelayMS) * time.Millisecond,
	}
}

// Start 开启订阅。重复调用返回错误。
func (f *Feed) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return fmt.Errorf("通知feed已在运行")
	}
	if err := f.mq.EnsureExchange(constants.NotificationEventsExchange, "topic", true); err != nil {
		return fmt.Errorf("声明通知事件exchange失败: %w", err)
	}

	f.generation++
	f.running = true
	f.unseen = false
	f.sessionLog = nil
	f.stop = make(chan struct{})

	f.wg.Add(1)
	go f.run(f.generation, f.stop)
	logger.Info().Uint64("generation", f.generation).Msg("通知feed已启动")
	return nil
}

// Stop 关闭订阅并等待后台goroutine退出
func (f *Feed) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	close(f.stop)
	f.mu.Unlock()

	f.wg.Wait()
	logger.Info().Msg("通知feed已停止")
}

// run 订阅循环：断开后指数退避重连，直到收到停止信号
func (f *Feed) run(generation uint64, stop <-chan struct{}) {
	defer f.wg.Done()
	delay := f.baseDelay

	for {
		deliveries, cancel, err := f.mq.SubscribeExchange(
			constants.NotificationEventsExchange, constants.NotificationCreatedRoutingKey)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", delay).Msg("通知feed订阅失败，退避重连")
			select {
			case <-stop:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > f.maxDelay {
				delay = f.maxDelay
			}
			continue
		}

		// 订阅建立成功，重置退避
		delay = f.baseDelay

	consume:
		for {
			select {
			case <-stop:
				cancel()
				return
			case d, ok := <-deliveries:
				if !ok {
					// 通道被服务端关闭，走重连
					cancel()
					logger.Warn().Msg("通知feed订阅中断，准备重连")
					break consume
				}
				f.apply(generation, d.Body)
			}
		}
	}
}

// apply 把一条通知事件应用到会话状态。
// 投递的世代与当前世代不一致时直接丢弃（重启后的迟到消息）。
func (f *Feed) apply(generation uint64, body []byte) {
	var event storage.NotificationEventMessage
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn().Err(err).Msg("通知事件反序列化失败，丢弃")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if generation != f.generation {
		return
	}
	f.sessionLog = append(f.sessionLog, event)
	// 正停留在通知视图时不点亮未读标志
	if !f.viewing {
		f.unseen = true
	}
}

// Unseen 是否有未读通知
func (f *Feed) Unseen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unseen
}

// OpenNotificationsView 进入通知视图：无条件清除未读标志，
// 并从持久存储拉取完整通知日志（最新在前）。
func (f *Feed) OpenNotificationsView(ctx context.Context, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	f.viewing = true
	f.unseen = false
	f.mu.Unlock()

	return f.notifications.List(ctx, limit)
}

// LeaveNotificationsView 离开通知视图，此后新事件重新点亮未读标志
func (f *Feed) LeaveNotificationsView() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewing = false
}

// SessionLog 返回本会话内存日志的副本，按到达顺序排列
func (f *Feed) SessionLog() []storage.NotificationEventMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.NotificationEventMessage, len(f.sessionLog))
	copy(out, f.sessionLog)
	return out
}
