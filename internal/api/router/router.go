// Package router 注册API路由并挂载认证中间件。
package router

import (
	"context"

	"recruit-track-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Candidates    *handler.CandidateHandler
	Posts         *handler.PostHandler
	Recruiters    *handler.RecruiterHandler
	Interviews    *handler.InterviewHandler
	Notifications *handler.NotificationHandler
	Chat          *handler.ChatHandler
	Settings      *handler.SettingHandler
}

// RegisterRoutes 注册API路由。
// apiKeys把API key映射到调用方角色；角色随请求上下文传递给处理器。
func RegisterRoutes(h *server.Hertz, handlers *Handlers, apiKeys map[string]string) {
	// 健康检查不需要认证
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")

	if len(apiKeys) > 0 {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
				role, ok := apiKeys[key]
				if !ok {
					return false, nil
				}
				ctx.Set("caller_role", role)
				return true, nil
			}),
		))
	}

	candidates := api.Group("/candidates")
	candidates.GET("", handlers.Candidates.List)
	candidates.POST("", handlers.Candidates.Create)
	candidates.GET("/:id", handlers.Candidates.Get)
	candidates.PATCH("/:id", handlers.Candidates.Update)
	candidates.DELETE("/:id", handlers.Candidates.Delete)
	candidates.POST("/:id/status", handlers.Candidates.TransitionStatus)
	candidates.POST("/:id/cv", handlers.Candidates.UploadCV)
	candidates.GET("/:id/cv", handlers.Candidates.CVLink)

	posts := api.Group("/posts")
	posts.GET("", handlers.Posts.List)
	posts.POST("", handlers.Posts.Create)
	posts.GET("/:id", handlers.Posts.Get)
	posts.PATCH("/:id", handlers.Posts.Update)
	posts.DELETE("/:id", handlers.Posts.Delete)

	recruiters := api.Group("/recruiters")
	recruiters.GET("", handlers.Recruiters.List)
	recruiters.POST("", handlers.Recruiters.Create)
	recruiters.GET("/:id", handlers.Recruiters.Get)
	recruiters.PATCH("/:id", handlers.Recruiters.Update)
	recruiters.DELETE("/:id", handlers.Recruiters.Delete)

	interviews := api.Group("/interviews")
	interviews.GET("", handlers.Interviews.List)
	interviews.POST("", handlers.Interviews.Create)
	interviews.GET("/:id", handlers.Interviews.Get)
	interviews.PATCH("/:id", handlers.Interviews.UpdateDetails)
	interviews.DELETE("/:id", handlers.Interviews.Delete)
	interviews.POST("/:id/status", handlers.Interviews.TransitionStatus)

	notifications := api.Group("/notifications")
	notifications.GET("", handlers.Notifications.List)
	notifications.GET("/unseen", handlers.Notifications.Unseen)
	notifications.POST("/open", handlers.Notifications.Open)
	notifications.POST("/leave", handlers.Notifications.Leave)

	chatGroup := api.Group("/chat")
	chatGroup.POST("/messages", handlers.Chat.Send)
	chatGroup.GET("/messages", handlers.Chat.History)
	chatGroup.DELETE("/messages", handlers.Chat.Clear)

	api.POST("/automation/email", handlers.Chat.TriggerEmail)

	settings := api.Group("/settings")
	settings.GET("/:category/:key", handlers.Settings.Get)
	settings.PUT("/:category/:key", handlers.Settings.Set)
}
