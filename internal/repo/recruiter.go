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

// RecruiterRepository 招聘官仓储
type RecruiterRepository struct {
	*base
}

// RecruiterFilter 招聘官列表过滤条件
type RecruiterFilter struct {
	Search string // 姓名或邮箱的子串匹配，不区分大小写
}

func (f RecruiterFilter) cacheKey() cache.Key {
	return cache.Key{
		Kind:   constants.KindRecruiter,
		Filter: fmt.Sprintf("search=%s", strings.ToLower(f.Search)),
	}
}

// List 查询招聘官，最新创建在前。经过查询缓存。
func (r *RecruiterRepository) List(ctx context.Context, filter RecruiterFilter) ([]models.Recruiter, error) {
	return cachedList(ctx, r.base, filter.cacheKey(), func() ([]models.Recruiter, error) {
		var rows []models.Recruiter
		q := r.db.WithContext(ctx).Model(&models.Recruiter{})
		if filter.Search != "" {
			pattern := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
		}
		if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("查询招聘官列表失败: %w", translateStoreError(err))
		}
		return rows, nil
	})
}

// Get 按主键查询单个招聘官
func (r *RecruiterRepository) Get(ctx context.Context, recruiterID string) (*models.Recruiter, error) {
	var row models.Recruiter
	err := r.db.WithContext(ctx).Where("recruiter_id = ?", recruiterID).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("查询招聘官 %s 失败: %w", recruiterID, translateStoreError(err))
	}
	return &row, nil
}

// Create 创建招聘官。姓名和邮箱必填；邮箱重复由存储层
// 唯一索引拒绝，翻译为ErrConflict。
func (r *RecruiterRepository) Create(ctx context.Context, rec *models.Recruiter) error {
	if strings.TrimSpace(rec.Name) == "" {
		return validationError("招聘官姓名不能为空")
	}
	if strings.TrimSpace(rec.Email) == "" {
		return validationError("招聘官邮箱不能为空")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成招聘官ID失败: %w", err)
	}
	rec.RecruiterID = id.String()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("新招聘官加入: %s", rec.Name)
		return r.appendOutbox(tx, constants.KindRecruiter, constants.ActionCreated, rec.RecruiterID, summary)
	})
	if err != nil {
		return fmt.Errorf("创建招聘官失败: %w", err)
	}

	r.invalidate(ctx, constants.KindRecruiter)
	return nil
}

// Update 稀疏更新招聘官字段
func (r *RecruiterRepository) Update(ctx context.Context, recruiterID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return validationError("更新内容不能为空")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recruiter
		if err := tx.Where("recruiter_id = ?", recruiterID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Model(&models.Recruiter{}).Where("recruiter_id = ?", recruiterID).Updates(updates).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("招聘官资料更新: %s", existing.Name)
		return r.appendOutbox(tx, constants.KindRecruiter, constants.ActionUpdated, recruiterID, summary)
	})
	if err != nil {
		return fmt.Errorf("更新招聘官 %s 失败: %w", recruiterID, err)
	}

	r.invalidate(ctx, constants.KindRecruiter)
	return nil
}

// Delete 删除招聘官。其面试随外键级联删除，
// 名下候选人的recruiter_id被置空。
func (r *RecruiterRepository) Delete(ctx context.Context, recruiterID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recruiter
		if err := tx.Where("recruiter_id = ?", recruiterID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Where("recruiter_id = ?", recruiterID).Delete(&models.Recruiter{}).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("招聘官已删除: %s", existing.Name)
		return r.appendOutbox(tx, constants.KindRecruiter, constants.ActionDeleted, recruiterID, summary)
	})
	if err != nil {
		return fmt.Errorf("删除招聘官 %s 失败: %w", recruiterID, err)
	}

	r.invalidate(ctx, constants.KindRecruiter, constants.KindCandidate, constants.KindInterview)
	return nil
}
