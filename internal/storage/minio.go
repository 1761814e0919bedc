package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"recruit-track-go/internal/config"
	"recruit-track-go/internal/constants"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadCV 上传候选人简历文件，返回对象名
	UploadCV(ctx context.Context, candidateID, fileExt string, reader io.Reader, fileSize int64, contentType string) (string, error)

	// GetCVPresignedURL 获取简历文件的预签名下载URL
	GetCVPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)

	// DeleteCV 删除简历文件
	DeleteCV(ctx context.Context, objectName string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client   *minio.Client
	cfg      *config.MinIOConfig
	cvBucket string
	logger   *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	cvBucket := cfg.CVBucket
	if cvBucket == "" {
		cvBucket = "candidate-cvs" // 默认值
	}

	m := &MinIO{
		client:   client,
		cfg:      cfg,
		cvBucket: cvBucket,
		logger:   logger,
	}

	if err := m.ensureBucketExists(cvBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保简历存储桶 %s 存在失败: %w", cvBucket, err)
	}

	logger.Printf("[MinIO] Client initialized successfully for endpoint: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在，不存在时创建
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶是否存在失败: %w", err)
	}
	if exists {
		return nil
	}

	err = m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
	if err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	m.logger.Printf("[MinIO] Created bucket: %s", bucketName)
	return nil
}

// UploadCV 上传候选人简历文件
// 对象名格式: cv/{candidateID}{ext}
func (m *MinIO) UploadCV(ctx context.Context, candidateID, fileExt string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	if candidateID == "" {
		return "", fmt.Errorf("candidateID不能为空")
	}
	if fileExt != "" && !strings.HasPrefix(fileExt, ".") {
		fileExt = "." + fileExt
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := path.Join(constants.CVObjectPrefix, candidateID+fileExt)

	_, err := m.client.PutObject(ctx, m.cvBucket, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传简历文件失败: %w", err)
	}

	m.logger.Printf("[MinIO] Uploaded CV object: %s/%s", m.cvBucket, objectName)
	return objectName, nil
}

// GetCVPresignedURL 获取简历文件的预签名下载URL
func (m *MinIO) GetCVPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	u, err := m.client.PresignedGetObject(ctx, m.cvBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}

// DeleteCV 删除简历文件
func (m *MinIO) DeleteCV(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.cvBucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("删除简历文件失败: %w", err)
	}
	return nil
}
