package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"recruit-track-go/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 关系型数据库 (实体存储，必需)
	MySQL *MySQL

	// 键值存储 (查询缓存后端，可选)
	Redis *Redis

	// 消息队列 (变更事件总线，可选)
	RabbitMQ *RabbitMQ

	// 对象存储 (简历文件，可选)
	MinIO *MinIO
}

// NewStorage 创建存储管理器。
// MySQL是硬依赖；Redis/RabbitMQ/MinIO按配置初始化，失败时记录警告并继续，
// 上层组件对缺失的可选后端自行降级。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	// 初始化MySQL（实体存储，必需）
	storage.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	// 初始化Redis（如果配置了）
	if cfg.Redis.Address != "" {
		log.Printf("初始化Redis at %s...", cfg.Redis.Address)
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Printf("警告: 初始化Redis失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		log.Printf("Redis未配置, 查询缓存将降级为进程内缓存.")
	}

	// 初始化RabbitMQ（如果配置了）
	if cfg.RabbitMQ.URL != "" {
		log.Printf("初始化RabbitMQ...")
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			log.Printf("警告: 初始化RabbitMQ失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	} else {
		log.Printf("RabbitMQ未配置, 实时通知feed不可用.")
	}

	// 初始化MinIO（如果配置了）
	if cfg.MinIO.Endpoint != "" {
		var minioLogger *log.Logger
		if cfg.Logger.Level == "debug" {
			minioLogger = log.New(os.Stderr, "[MinIOStorage] ", log.LstdFlags|log.Lshortfile)
		} else {
			minioLogger = log.New(io.Discard, "", 0)
		}
		storage.MinIO, err = NewMinIO(&cfg.MinIO, minioLogger)
		if err != nil {
			log.Printf("警告: 初始化MinIO失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if len(initErrors) > 0 {
		log.Printf("警告: 以下可选存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}

	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
	// MinIO客户端不需要显式Close
}
