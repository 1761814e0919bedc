package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruit-track-go/internal/api/handler"
	"recruit-track-go/internal/api/router"
	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/chat"
	"recruit-track-go/internal/config"
	appCoreLogger "recruit-track-go/internal/logger"
	"recruit-track-go/internal/notify"
	"recruit-track-go/internal/outbox"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/tracing"
	"recruit-track-go/internal/workflow"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化追踪失败: %v", err)
	}
	defer func() {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFlush()
		if err := shutdownTracing(flushCtx); err != nil {
			glog.Warnf("关闭追踪Provider失败: %v", err)
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 查询缓存：Redis可用时进程间共享，否则降级为进程内缓存
	var queryCache cache.QueryCache
	if storageManager.Redis != nil {
		queryCache = cache.NewRedisQueryCache(storageManager.Redis)
		glog.Info("查询缓存使用Redis后端")
	} else {
		queryCache = cache.NewMemoryQueryCache()
		glog.Warn("Redis不可用，查询缓存降级为进程内实现")
	}

	repos := repo.New(storageManager.MySQL.DB(), queryCache)
	engine := workflow.NewEngine(repos.Candidates, repos.Interviews)
	chatRelay := chat.NewRelay(repos.Chat, repos.Settings, &cfg.Webhook)

	// 变更事件管道：发件箱中继 + 通知捕获 + 会话feed。
	// RabbitMQ缺失时整条管道降级，写路径不受影响。
	var messageRelay *outbox.MessageRelay
	var capture *notify.Capture
	var feed *notify.Feed
	if storageManager.RabbitMQ != nil {
		relayLogger := log.New(appCoreLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, relayLogger)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")

		capture = notify.NewCapture(storageManager.RabbitMQ, repos.Notifications, cfg.RabbitMQ.PrefetchCount)
		if err := capture.Start(); err != nil {
			glog.Fatalf("启动通知变更捕获器失败: %v", err)
		}

		feed = notify.NewFeed(storageManager.RabbitMQ, repos.Notifications,
			cfg.RabbitMQ.ReconnectBaseDelayMS, cfg.RabbitMQ.ReconnectMaxDelayMS)
		if err := feed.Start(); err != nil {
			glog.Fatalf("启动通知feed失败: %v", err)
		}
	} else {
		glog.Warn("RabbitMQ不可用，变更事件管道与实时通知feed已禁用")
	}

	var objects storage.ObjectStorage
	if storageManager.MinIO != nil {
		objects = storageManager.MinIO
	}

	handlers := &router.Handlers{
		Candidates:    handler.NewCandidateHandler(repos.Candidates, engine, objects),
		Posts:         handler.NewPostHandler(repos.Posts),
		Recruiters:    handler.NewRecruiterHandler(repos.Recruiters),
		Interviews:    handler.NewInterviewHandler(repos.Interviews, engine),
		Notifications: handler.NewNotificationHandler(repos.Notifications, feed),
		Chat:          handler.NewChatHandler(chatRelay),
		Settings:      handler.NewSettingHandler(repos.Settings),
	}

	serverTracer, serverTracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		serverTracer,
	)
	h.Use(hertztracing.ServerMiddleware(serverTracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, handlers, cfg.Server.APIKeys)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	// 先停事件管道，再关HTTP服务
	if feed != nil {
		feed.Stop()
	}
	if capture != nil {
		capture.Stop()
	}
	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	var writer = zerolog.MultiLevelWriter(consoleWriter)
	logFilePath := "logs/app.log"
	if fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		writer = zerolog.MultiLevelWriter(consoleWriter, fileWriter)
	} else {
		log.Printf("无法打开日志文件 %s: %v, 仅输出到控制台", logFilePath, err)
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(writer).With().Timestamp().Caller().Logger()

	appCoreLogger.Logger = logger
	zlog.Logger = logger

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelDebug)
}
