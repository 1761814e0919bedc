// Package handler 提供HTTP处理器，把仓储/工作流/聊天中继的操作暴露为REST接口。
package handler

import (
	"context"
	"errors"

	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"
)

// writeError 把领域错误翻译为HTTP状态码并输出统一的错误响应。
// NotFound→404, Conflict→409, Validation→400, Transport→502, 其余→500。
func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := consts.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		status = consts.StatusNotFound
	case errors.Is(err, repo.ErrConflict):
		status = consts.StatusConflict
	case errors.Is(err, repo.ErrValidation):
		status = consts.StatusBadRequest
	case errors.Is(err, repo.ErrTransport):
		status = consts.StatusBadGateway
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		tracing.RecordHTTPError(span, err, status)
	}
	c.JSON(status, utils.H{"error": err.Error()})
}

// CallerRole 从请求上下文取出keyauth中间件写入的调用方角色
func CallerRole(c *app.RequestContext) string {
	if v, ok := c.Get("caller_role"); ok {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}
