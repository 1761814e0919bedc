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

// PostHandler 职位接口处理器
type PostHandler struct {
	posts *repo.PostRepository
}

// NewPostHandler 创建职位处理器
func NewPostHandler(posts *repo.PostRepository) *PostHandler {
	return &PostHandler{posts: posts}
}

// List GET /posts
func (h *PostHandler) List(ctx context.Context, c *app.RequestContext) {
	filter := repo.PostFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	rows, err := h.posts.List(ctx, filter)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, rows)
}

// Get GET /posts/:id
func (h *PostHandler) Get(ctx context.Context, c *app.RequestContext) {
	row, err := h.posts.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, row)
}

// Create POST /posts
func (h *PostHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Enterprise  string `json:"enterprise"`
		Department  string `json:"department"`
		PostStatus  string `json:"post_status"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}

	post := models.Post{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Enterprise:  req.Enterprise,
		Department:  req.Department,
		PostStatus:  req.PostStatus,
	}
	if err := h.posts.Create(ctx, &post); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, post)
}

var postUpdatableColumns = map[string]bool{
	"title": true, "description": true, "location": true,
	"enterprise": true, "department": true, "post_status": true,
}

// Update PATCH /posts/:id
func (h *PostHandler) Update(ctx context.Context, c *app.RequestContext) {
	updates, err := parseSparseUpdate(c.Request.Body(), postUpdatableColumns)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if err := h.posts.Update(ctx, c.Param("id"), updates); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}

// Delete DELETE /posts/:id
// 级联删除该职位的候选人和面试，要求显式confirm。
func (h *PostHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if c.Query("confirm") != "true" {
		writeError(ctx, c, fmt.Errorf("%w: 删除职位会级联删除其候选人和面试，需要 confirm=true", repo.ErrValidation))
		return
	}
	if err := h.posts.Delete(ctx, c.Param("id")); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}
