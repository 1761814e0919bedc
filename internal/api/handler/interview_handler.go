package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage/models"
	"recruit-track-go/internal/workflow"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// InterviewHandler 面试接口处理器。
// 状态迁移和详情编辑走工作流引擎，终态保护在引擎层实施。
type InterviewHandler struct {
	interviews *repo.InterviewRepository
	engine     *workflow.Engine
}

// NewInterviewHandler 创建面试处理器
func NewInterviewHandler(interviews *repo.InterviewRepository, engine *workflow.Engine) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, engine: engine}
}

// List GET /interviews
func (h *InterviewHandler) List(ctx context.Context, c *app.RequestContext) {
	filter := repo.InterviewFilter{
		CandidateID: c.Query("candidate_id"),
		RecruiterID: c.Query("recruiter_id"),
		PostID:      c.Query("post_id"),
		Status:      c.Query("status"),
		SortBy:      c.Query("sort_by"),
	}
	rows, err := h.interviews.List(ctx, filter)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	now := time.Now()
	type interviewView struct {
		repo.InterviewDetail
		IsPast bool `json:"is_past"`
	}
	views := make([]interviewView, 0, len(rows))
	for _, row := range rows {
		views = append(views, interviewView{
			InterviewDetail: row,
			IsPast:          workflow.IsPast(row.ScheduledAt, now),
		})
	}
	c.JSON(consts.StatusOK, views)
}

// Get GET /interviews/:id
func (h *InterviewHandler) Get(ctx context.Context, c *app.RequestContext) {
	row, err := h.interviews.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"interview": row,
		"is_past":   workflow.IsPast(row.ScheduledAt, time.Now()),
		"terminal":  workflow.IsTerminalInterview(models.InterviewStatus(row.InterviewStatus)),
	})
}

// Create POST /interviews
func (h *InterviewHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req struct {
		CandidateID string    `json:"candidate_id"`
		RecruiterID string    `json:"recruiter_id"`
		PostID      string    `json:"post_id"`
		ScheduledAt time.Time `json:"scheduled_at"`
		Location    string    `json:"location"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}

	interview := models.Interview{
		CandidateID: req.CandidateID,
		RecruiterID: req.RecruiterID,
		PostID:      req.PostID,
		ScheduledAt: req.ScheduledAt,
		Location:    req.Location,
	}
	if err := h.interviews.Create(ctx, &interview); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, interview)
}

// UpdateDetails PATCH /interviews/:id
// 时间/地点/反馈的编辑经过引擎，面试进入终态后拒绝。
func (h *InterviewHandler) UpdateDetails(ctx context.Context, c *app.RequestContext) {
	var req struct {
		ScheduledAt *time.Time `json:"scheduled_at"`
		Location    *string    `json:"location"`
		Feedback    *string    `json:"feedback"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}
	if err := h.engine.EditInterviewDetails(ctx, c.Param("id"), req.ScheduledAt, req.Location, req.Feedback); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}

// TransitionStatus POST /interviews/:id/status
func (h *InterviewHandler) TransitionStatus(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}
	if err := h.engine.TransitionInterview(ctx, c.Param("id"), models.InterviewStatus(req.Status)); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": req.Status})
}

// Delete DELETE /interviews/:id
func (h *InterviewHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := h.interviews.Delete(ctx, c.Param("id")); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}
