package workflow

import (
	"context"
	"fmt"
	"time"

	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage/models"
)

// candidateStore 引擎对候选人仓储的最小依赖
type candidateStore interface {
	Get(ctx context.Context, candidateID string) (*models.Candidate, error)
	Update(ctx context.Context, candidateID string, updates map[string]interface{}) error
}

// interviewStore 引擎对面试仓储的最小依赖
type interviewStore interface {
	Get(ctx context.Context, interviewID string) (*models.Interview, error)
	Update(ctx context.Context, interviewID string, updates map[string]interface{}) error
}

// Engine 状态工作流引擎。状态变更类写操作先经引擎校验再落库；
// 直接调用仓储Update可以绕过引擎，那是有意保留的存储边界行为。
type Engine struct {
	candidates candidateStore
	interviews interviewStore
	now        func() time.Time
}

// NewEngine 创建工作流引擎
func NewEngine(candidates candidateStore, interviews interviewStore) *Engine {
	return &Engine{
		candidates: candidates,
		interviews: interviews,
		now:        time.Now,
	}
}

// TransitionCandidate 迁移候选人的申请状态。
// 候选人状态图是扁平的，只校验目标值是合法枚举；实体不存在返回NotFound。
func (e *Engine) TransitionCandidate(ctx context.Context, candidateID string, to models.ApplicationStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: 未知的申请状态 %q", repo.ErrValidation, to)
	}
	c, err := e.candidates.Get(ctx, candidateID)
	if err != nil {
		return err
	}
	if models.ApplicationStatus(c.ApplicationStatus) == to {
		return nil
	}
	return e.candidates.Update(ctx, candidateID, map[string]interface{}{
		"application_status": string(to),
	})
}

// TransitionInterview 迁移面试状态。
// 从终态（Retained/Rejected）迁出的请求以Conflict拒绝。
func (e *Engine) TransitionInterview(ctx context.Context, interviewID string, to models.InterviewStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: 未知的面试状态 %q", repo.ErrValidation, to)
	}
	iv, err := e.interviews.Get(ctx, interviewID)
	if err != nil {
		return err
	}
	from := models.InterviewStatus(iv.InterviewStatus)
	if from == to {
		return nil
	}
	if !CanTransitionInterview(from, to) {
		return fmt.Errorf("%w: 面试状态不允许从 %q 迁移到 %q", repo.ErrConflict, from, to)
	}
	return e.interviews.Update(ctx, interviewID, map[string]interface{}{
		"interview_status": string(to),
	})
}

// EditInterviewDetails 修改面试的时间、地点和反馈。
// 面试一旦进入终态，这条路径拒绝任何修改；状态变更不走这里。
func (e *Engine) EditInterviewDetails(ctx context.Context, interviewID string, scheduledAt *time.Time, location, feedback *string) error {
	iv, err := e.interviews.Get(ctx, interviewID)
	if err != nil {
		return err
	}
	if IsTerminalInterview(models.InterviewStatus(iv.InterviewStatus)) {
		return fmt.Errorf("%w: 面试已进入终态 %q，不允许再编辑", repo.ErrConflict, iv.InterviewStatus)
	}

	updates := make(map[string]interface{})
	if scheduledAt != nil {
		if scheduledAt.IsZero() {
			return fmt.Errorf("%w: 面试时间不能为空", repo.ErrValidation)
		}
		updates["scheduled_at"] = *scheduledAt
	}
	if location != nil {
		updates["location"] = *location
	}
	if feedback != nil {
		updates["feedback"] = *feedback
	}
	if len(updates) == 0 {
		return fmt.Errorf("%w: 没有需要修改的字段", repo.ErrValidation)
	}
	return e.interviews.Update(ctx, interviewID, updates)
}

// InterviewIsPast 面试是否已过期，基于引擎时钟
func (e *Engine) InterviewIsPast(iv *models.Interview) bool {
	return IsPast(iv.ScheduledAt, e.now())
}
