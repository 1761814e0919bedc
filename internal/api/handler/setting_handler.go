package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recruit-track-go/internal/repo"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// SettingHandler 应用设置接口处理器，主要用于管理webhook地址
type SettingHandler struct {
	settings *repo.SettingRepository
}

// NewSettingHandler 创建设置处理器
func NewSettingHandler(settings *repo.SettingRepository) *SettingHandler {
	return &SettingHandler{settings: settings}
}

// Get GET /settings/:category/:key
func (h *SettingHandler) Get(ctx context.Context, c *app.RequestContext) {
	category, key := c.Param("category"), c.Param("key")
	value, err := h.settings.Get(ctx, category, key)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"category": category,
		"key":      key,
		"value":    value,
	})
}

// Set PUT /settings/:category/:key
func (h *SettingHandler) Set(ctx context.Context, c *app.RequestContext) {
	category, key := c.Param("category"), c.Param("key")
	if strings.TrimSpace(category) == "" || strings.TrimSpace(key) == "" {
		writeError(ctx, c, fmt.Errorf("%w: 设置分类和键不能为空", repo.ErrValidation))
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err))
		return
	}
	if err := h.settings.Set(ctx, category, key, req.Value); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"saved": true})
}
