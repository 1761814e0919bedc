package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"recruit-track-go/internal/logger"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"
	"recruit-track-go/internal/workflow"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/datatypes"
)

// CandidateHandler 候选人接口处理器
type CandidateHandler struct {
	candidates *repo.CandidateRepository
	engine     *workflow.Engine
	objects    storage.ObjectStorage // 可为nil，简历上传降级为不可用
}

// NewCandidateHandler 创建候选人处理器
func NewCandidateHandler(candidates *repo.CandidateRepository, engine *workflow.Engine, objects storage.ObjectStorage) *CandidateHandler {
	return &CandidateHandler{
		candidates: candidates,
		engine:     engine,
		objects:    objects,
	}
}

// CandidateCreateRequest 创建候选人请求体
type CandidateCreateRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	LinkedinURL        string   `json:"linkedin_url"`
	ProfileSummary     string   `json:"profile_summary"`
	DesiredPosition    string   `json:"desired_position"`
	ApplicationStatus  string   `json:"application_status"`
	RelevanceScore     *int     `json:"relevance_score"`
	ScoreJustification string   `json:"score_justification"`
	Experiences        []string `json:"experiences"`
	Degrees            []string `json:"degrees"`
	Skills             []string `json:"skills"`
	Certifications     []string `json:"certifications"`
	PostID             *string  `json:"post_id"`
	RecruiterID        *string  `json:"recruiter_id"`
}

// List GET /candidates
func (h *CandidateHandler) List(ctx context.Context, c *app.RequestContext) {
	filter := repo.CandidateFilter{
		Status:        c.Query("status"),
		PostID:        c.Query("post_id"),
		RecruiterID:   c.Query("recruiter_id"),
		Search:        c.Query("search"),
		AppliedAfter:  c.Query("applied_after"),
		AppliedBefore: c.Query("applied_before"),
	}
	rows, err := h.candidates.List(ctx, filter)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, rows)
}

// Get GET /candidates/:id
func (h *CandidateHandler) Get(ctx context.Context, c *app.RequestContext) {
	row, err := h.candidates.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	// 派生展示字段随资源一起返回，避免客户端重复换算
	resp := utils.H{"candidate": row}
	if row.RelevanceScore != nil {
		resp["score_out_of_ten"] = workflow.ScoreOutOfTen(*row.RelevanceScore)
		resp["score_stars"] = workflow.ScoreStars(*row.RelevanceScore)
	}
	c.JSON(consts.StatusOK, resp)
}

// Create POST /candidates
func (h *CandidateHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req CandidateCreateRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}

	candidate := models.Candidate{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		LinkedinURL:        req.LinkedinURL,
		ProfileSummary:     req.ProfileSummary,
		DesiredPosition:    req.DesiredPosition,
		ApplicationStatus:  req.ApplicationStatus,
		RelevanceScore:     req.RelevanceScore,
		ScoreJustification: req.ScoreJustification,
		PostID:             req.PostID,
		RecruiterID:        req.RecruiterID,
	}
	for _, field := range []struct {
		values []string
		dst    *datatypes.JSON
	}{
		{req.Experiences, &candidate.Experiences},
		{req.Degrees, &candidate.Degrees},
		{req.Skills, &candidate.Skills},
		{req.Certifications, &candidate.Certifications},
	} {
		if field.values == nil {
			continue
		}
		encoded, err := models.StringSliceToJSON(field.values)
		if err != nil {
			writeError(ctx, c, fmt.Errorf("%w: 列表字段编码失败: %v", repo.ErrValidation, err))
			return
		}
		*field.dst = encoded
	}

	if err := h.candidates.Create(ctx, &candidate); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, candidate)
}

// candidateUpdatableColumns 允许通过稀疏更新修改的列
var candidateUpdatableColumns = map[string]bool{
	"name": true, "email": true, "phone": true, "linkedin_url": true,
	"cv_url": true, "profile_summary": true, "desired_position": true,
	"application_status": true, "relevance_score": true, "score_justification": true,
	"experiences": true, "degrees": true, "skills": true, "certifications": true,
	"post_id": true, "recruiter_id": true,
}

// Update PATCH /candidates/:id
func (h *CandidateHandler) Update(ctx context.Context, c *app.RequestContext) {
	updates, err := parseSparseUpdate(c.Request.Body(), candidateUpdatableColumns)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if err := h.candidates.Update(ctx, c.Param("id"), updates); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}

// TransitionStatus POST /candidates/:id/status
// 状态变更走工作流引擎而不是裸更新。
func (h *CandidateHandler) TransitionStatus(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}
	if err := h.engine.TransitionCandidate(ctx, c.Param("id"), models.ApplicationStatus(req.Status)); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": req.Status})
}

// Delete DELETE /candidates/:id
// 删除不可撤销，要求显式的confirm参数，替代来源系统里的确认对话框。
func (h *CandidateHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if c.Query("confirm") != "true" {
		writeError(ctx, c, fmt.Errorf("%w: 删除候选人需要 confirm=true", repo.ErrValidation))
		return
	}
	if err := h.candidates.Delete(ctx, c.Param("id")); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}

// UploadCV POST /candidates/:id/cv
// 上传简历到对象存储并把对象URL写回cv_url字段。
func (h *CandidateHandler) UploadCV(ctx context.Context, c *app.RequestContext) {
	if h.objects == nil {
		writeError(ctx, c, fmt.Errorf("%w: 对象存储未配置，简历上传不可用", repo.ErrTransport))
		return
	}
	candidateID := c.Param("id")
	if _, err := h.candidates.Get(ctx, candidateID); err != nil {
		writeError(ctx, c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 文件未找到", repo.ErrValidation))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(ctx, c, fmt.Errorf("打开上传文件失败: %w", err))
		return
	}
	defer file.Close()

	objectURL, err := h.objects.UploadCV(ctx, candidateID, filepath.Ext(fileHeader.Filename),
		file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 上传简历失败: %v", repo.ErrTransport, err))
		return
	}

	if err := h.candidates.Update(ctx, candidateID, map[string]interface{}{"cv_url": objectURL}); err != nil {
		logger.Error().Err(err).Str("candidate_id", candidateID).Msg("简历已上传但回写cv_url失败")
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"cv_url": objectURL})
}

// CVLink GET /candidates/:id/cv
// 返回简历的限时访问链接。
func (h *CandidateHandler) CVLink(ctx context.Context, c *app.RequestContext) {
	if h.objects == nil {
		writeError(ctx, c, fmt.Errorf("%w: 对象存储未配置", repo.ErrTransport))
		return
	}
	row, err := h.candidates.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if row.CVURL == "" {
		writeError(ctx, c, fmt.Errorf("%w: 该候选人没有简历", repo.ErrNotFound))
		return
	}
	url, err := h.objects.GetCVPresignedURL(ctx, row.CVURL, 0)
	if err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 生成简历链接失败: %v", repo.ErrTransport, err))
		return
	}
	c.JSON(consts.StatusOK, utils.H{"url": url})
}
