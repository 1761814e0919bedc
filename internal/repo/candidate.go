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

// CandidateRepository 候选人仓储
type CandidateRepository struct {
	*base
}

// CandidateFilter 候选人列表过滤条件，零值表示不过滤
type CandidateFilter struct {
	Status        string // 精确匹配申请状态
	PostID        string // 精确匹配所属职位
	RecruiterID   string // 精确匹配负责招聘官
	Search        string // 姓名或邮箱的子串匹配，不区分大小写
	AppliedAfter  string // 申请时间下界，格式 2006-01-02
	AppliedBefore string // 申请时间上界，格式 2006-01-02
}

// cacheKey 生成该过滤条件的规范化缓存键。
// 字段顺序固定，等价的过滤条件必须产生相同的键。
func (f CandidateFilter) cacheKey() cache.Key {
	return cache.Key{
		Kind: constants.KindCandidate,
		Filter: fmt.Sprintf("status=%s&post=%s&recruiter=%s&search=%s&after=%s&before=%s",
			f.Status, f.PostID, f.RecruiterID, strings.ToLower(f.Search), f.AppliedAfter, f.AppliedBefore),
	}
}

func (f CandidateFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("application_status = ?", f.Status)
	}
	if f.PostID != "" {
		q = q.Where("post_id = ?", f.PostID)
	}
	if f.RecruiterID != "" {
		q = q.Where("recruiter_id = ?", f.RecruiterID)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if f.AppliedAfter != "" {
		q = q.Where("applied_at >= ?", f.AppliedAfter)
	}
	if f.AppliedBefore != "" {
		q = q.Where("applied_at <= ?", f.AppliedBefore)
	}
	return q
}

// List 按过滤条件查询候选人，最新申请在前。经过查询缓存。
func (r *CandidateRepository) List(ctx context.Context, filter CandidateFilter) ([]models.Candidate, error) {
	if filter.Status != "" && !models.ApplicationStatus(filter.Status).Valid() {
		return nil, validationError("未知的申请状态: %s", filter.Status)
	}
	return cachedList(ctx, r.base, filter.cacheKey(), func() ([]models.Candidate, error) {
		var rows []models.Candidate
		q := filter.apply(r.db.WithContext(ctx).Model(&models.Candidate{}))
		if err := q.Order("applied_at DESC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("查询候选人列表失败: %w", translateStoreError(err))
		}
		return rows, nil
	})
}

// Get 按主键查询单个候选人
func (r *CandidateRepository) Get(ctx context.Context, candidateID string) (*models.Candidate, error) {
	var row models.Candidate
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("查询候选人 %s 失败: %w", candidateID, translateStoreError(err))
	}
	return &row, nil
}

// Create 创建候选人。姓名和邮箱必填，状态和分数在任何存储调用之前校验。
// 主键由服务端生成，调用方提供的CandidateID被忽略。
func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	if strings.TrimSpace(c.Name) == "" {
		return validationError("候选人姓名不能为空")
	}
	if strings.TrimSpace(c.Email) == "" {
		return validationError("候选人邮箱不能为空")
	}
	if c.ApplicationStatus == "" {
		c.ApplicationStatus = string(models.ApplicationToBeReviewed)
	}
	if !models.ApplicationStatus(c.ApplicationStatus).Valid() {
		return validationError("未知的申请状态: %s", c.ApplicationStatus)
	}
	if err := validateScore(c.RelevanceScore); err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成候选人ID失败: %w", err)
	}
	c.CandidateID = id.String()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("新候选人申请: %s", c.Name)
		return r.appendOutbox(tx, constants.KindCandidate, constants.ActionCreated, c.CandidateID, summary)
	})
	if err != nil {
		return fmt.Errorf("创建候选人失败: %w", err)
	}

	r.invalidate(ctx, constants.KindCandidate)
	return nil
}

// Update 稀疏更新候选人字段。updates只包含要改动的列，
// 未出现的字段保持不变。状态和分数字段在写入前校验。
func (r *CandidateRepository) Update(ctx context.Context, candidateID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return validationError("更新内容不能为空")
	}
	if status, ok := updates["application_status"]; ok {
		s, _ := status.(string)
		if !models.ApplicationStatus(s).Valid() {
			return validationError("未知的申请状态: %v", status)
		}
	}
	if score, ok := updates["relevance_score"]; ok && score != nil {
		n, err := toInt(score)
		if err != nil || n < 0 || n > 100 {
			return validationError("相关性分数必须在0-100之间: %v", score)
		}
		updates["relevance_score"] = n
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Candidate
		if err := tx.Where("candidate_id = ?", candidateID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Model(&models.Candidate{}).Where("candidate_id = ?", candidateID).Updates(updates).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("候选人资料更新: %s", existing.Name)
		return r.appendOutbox(tx, constants.KindCandidate, constants.ActionUpdated, candidateID, summary)
	})
	if err != nil {
		return fmt.Errorf("更新候选人 %s 失败: %w", candidateID, err)
	}

	r.invalidate(ctx, constants.KindCandidate)
	return nil
}

// Delete 删除候选人。该候选人的面试随外键级联一并删除，
// 因此同时失效面试缓存。
func (r *CandidateRepository) Delete(ctx context.Context, candidateID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Candidate
		if err := tx.Where("candidate_id = ?", candidateID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&models.Candidate{}).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("候选人已删除: %s", existing.Name)
		return r.appendOutbox(tx, constants.KindCandidate, constants.ActionDeleted, candidateID, summary)
	})
	if err != nil {
		return fmt.Errorf("删除候选人 %s 失败: %w", candidateID, err)
	}

	r.invalidate(ctx, constants.KindCandidate, constants.KindInterview)
	return nil
}

// validateScore 校验统一0-100分制的相关性分数
func validateScore(score *int) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 100 {
		return validationError("相关性分数必须在0-100之间: %d", *score)
	}
	return nil
}

// toInt 把JSON反序列化产生的数值类型归一为int
func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("不是数值类型: %T", v)
}
