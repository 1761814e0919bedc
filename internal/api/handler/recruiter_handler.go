package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RecruiterHandler 招聘官接口处理器
type RecruiterHandler struct {
	recruiters *repo.RecruiterRepository
}

// NewRecruiterHandler 创建招聘官处理器
func NewRecruiterHandler(recruiters *repo.RecruiterRepository) *RecruiterHandler {
	return &RecruiterHandler{recruiters: recruiters}
}

// List GET /recruiters
func (h *RecruiterHandler) List(ctx context.Context, c *app.RequestContext) {
	rows, err := h.recruiters.List(ctx, repo.RecruiterFilter{Search: c.Query("search")})
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, rows)
}

// Get GET /recruiters/:id
func (h *RecruiterHandler) Get(ctx context.Context, c *app.RequestContext) {
	row, err := h.recruiters.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, row)
}

// Create POST /recruiters
func (h *RecruiterHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}

	recruiter := models.Recruiter{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  req.Role,
	}
	if err := h.recruiters.Create(ctx, &recruiter); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, recruiter)
}

var recruiterUpdatableColumns = map[string]bool{
	"name": true, "email": true, "phone": true, "role": true,
}

// Update PATCH /recruiters/:id
func (h *RecruiterHandler) Update(ctx context.Context, c *app.RequestContext) {
	updates, err := parseSparseUpdate(c.Request.Body(), recruiterUpdatableColumns)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if err := h.recruiters.Update(ctx, c.Param("id"), updates); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}

// Delete DELETE /recruiters/:id
func (h *RecruiterHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if c.Query("confirm") != "true" {
		writeError(ctx, c, fmt.Errorf("%w: 删除招聘官需要 confirm=true", repo.ErrValidation))
		return
	}
	if err := h.recruiters.Delete(ctx, c.Param("id")); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}
