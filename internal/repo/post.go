package repo

import (
	"context"
	"fmt"
	"strings"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/storage/models"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

// PostRepository 职位仓储
type PostRepository struct {
	*base
}

// PostFilter 职位列表过滤条件
type PostFilter struct {
	Status string // 精确匹配职位状态
	Search string // 标题或企业名的子串匹配，不区分大小写
}

func (f PostFilter) cacheKey() cache.Key {
	return cache.Key{
		Kind:   constants.KindPost,
		Filter: fmt.Sprintf("status=%s&search=%s", f.Status, strings.ToLower(f.Search)),
	}
}

// List 按过滤条件查询职位，最新创建在前。经过查询缓存。
func (r *PostRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	if filter.Status != "" && !models.PostStatus(filter.Status).Valid() {
		return nil, validationError("未知的职位状态: %s", filter.Status)
	}
	return cachedList(ctx, r.base, filter.cacheKey(), func() ([]models.Post, error) {
		var rows []models.Post
		q := r.db.WithContext(ctx).Model(&models.Post{})
		if filter.Status != "" {
			q = q.Where("post_status = ?", filter.Status)
		}
		if filter.Search != "" {
			pattern := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where("LOWER(title) LIKE ? OR LOWER(enterprise) LIKE ?", pattern, pattern)
		}
		if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("查询职位列表失败: %w", translateStoreError(err))
		}
		return rows, nil
	})
}

// Get 按主键查询单个职位
func (r *PostRepository) Get(ctx context.Context, postID string) (*models.Post, error) {
	var row models.Post
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("查询职位 %s 失败: %w", postID, translateStoreError(err))
	}
	return &row, nil
}

// Create 创建职位。标题必填，状态默认Open。
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return validationError("职位标题不能为空")
	}
	if p.PostStatus == "" {
		p.PostStatus = string(models.PostOpen)
	}
	if !models.PostStatus(p.PostStatus).Valid() {
		return validationError("未知的职位状态: %s", p.PostStatus)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成职位ID失败: %w", err)
	}
	p.PostID = id.String()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("新职位发布: %s", p.Title)
		return r.appendOutbox(tx, constants.KindPost, constants.ActionCreated, p.PostID, summary)
	})
	if err != nil {
		return fmt.Errorf("创建职位失败: %w", err)
	}

	r.invalidate(ctx, constants.KindPost)
	return nil
}

// Update 稀疏更新职位字段。
// 关闭职位（post_status改为Close）只影响职位自身，
// 已关联的候选人和面试保持不变。
func (r *PostRepository) Update(ctx context.Context, postID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return validationError("更新内容不能为空")
	}
	if status, ok := updates["post_status"]; ok {
		s, _ := status.(string)
		if !models.PostStatus(s).Valid() {
			return validationError("未知的职位状态: %v", status)
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		if err := tx.Where("post_id = ?", postID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Model(&models.Post{}).Where("post_id = ?", postID).Updates(updates).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("职位更新: %s", existing.Title)
		return r.appendOutbox(tx, constants.KindPost, constants.ActionUpdated, postID, summary)
	})
	if err != nil {
		return fmt.Errorf("更新职位 %s 失败: %w", postID, err)
	}

	r.invalidate(ctx, constants.KindPost)
	return nil
}

// Delete 删除职位。存储层外键级联删除该职位的候选人和面试，
// 仓储本身不补充额外逻辑，但要把受波及的实体类型缓存一并失效。
func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		if err := tx.Where("post_id = ?", postID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Post{}).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("职位已删除: %s", existing.Title)
		return r.appendOutbox(tx, constants.KindPost, constants.ActionDeleted, postID, summary)
	})
	if err != nil {
		return fmt.Errorf("删除职位 %s 失败: %w", postID, err)
	}

	r.invalidate(ctx, constants.KindPost, constants.KindCandidate, constants.KindInterview)
	return nil
}
