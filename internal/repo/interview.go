package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/storage/models"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

// InterviewRepository 面试仓储
type InterviewRepository struct {
	*base
}

// InterviewFilter 面试列表过滤条件。
// SortBy 取 "scheduled_at" 或 "created_at"，默认 scheduled_at；
// 排序在取回后内存中完成，集合规模小。
type InterviewFilter struct {
	CandidateID string
	RecruiterID string
	PostID      string
	Status      string
	SortBy      string
}

func (f InterviewFilter) cacheKey() cache.Key {
	return cache.Key{
		Kind: constants.KindInterview,
		Filter: fmt.Sprintf("candidate=%s&recruiter=%s&post=%s&status=%s&sort=%s",
			f.CandidateID, f.RecruiterID, f.PostID, f.Status, f.SortBy),
	}
}

// InterviewDetail 面试详情投影：面试行加上三方实体的显示字段。
// 列表页直接消费这个结构，不需要再按ID逐个补查。
type InterviewDetail struct {
	models.Interview
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	RecruiterName  string `json:"recruiter_name"`
	PostTitle      string `json:"post_title"`
}

// List 按过滤条件查询面试详情。经过查询缓存。
func (r *InterviewRepository) List(ctx context.Context, filter InterviewFilter) ([]InterviewDetail, error) {
	if filter.Status != "" && !models.InterviewStatus(filter.Status).Valid() {
		return nil, validationError("未知的面试状态: %s", filter.Status)
	}
	switch filter.SortBy {
	case "", "scheduled_at", "created_at":
	default:
		return nil, validationError("不支持的排序字段: %s", filter.SortBy)
	}

	return cachedList(ctx, r.base, filter.cacheKey(), func() ([]InterviewDetail, error) {
		var rows []models.Interview
		q := r.db.WithContext(ctx).Model(&models.Interview{}).
			Preload("Candidate").Preload("Recruiter").Preload("Post")
		if filter.CandidateID != "" {
			q = q.Where("candidate_id = ?", filter.CandidateID)
		}
		if filter.RecruiterID != "" {
			q = q.Where("recruiter_id = ?", filter.RecruiterID)
		}
		if filter.PostID != "" {
			q = q.Where("post_id = ?", filter.PostID)
		}
		if filter.Status != "" {
			q = q.Where("interview_status = ?", filter.Status)
		}
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("查询面试列表失败: %w", translateStoreError(err))
		}

		details := make([]InterviewDetail, 0, len(rows))
		for _, iv := range rows {
			d := InterviewDetail{Interview: iv}
			if iv.Candidate != nil {
				d.CandidateName = iv.Candidate.Name
				d.CandidateEmail = iv.Candidate.Email
			}
			if iv.Recruiter != nil {
				d.RecruiterName = iv.Recruiter.Name
			}
			if iv.Post != nil {
				d.PostTitle = iv.Post.Title
			}
			// 投影里不重复携带整棵关联对象
			d.Candidate, d.Recruiter, d.Post = nil, nil, nil
			details = append(details, d)
		}

		sortDetails(details, filter.SortBy)
		return details, nil
	})
}

// sortDetails 按指定字段降序排序，最近的排在前面
func sortDetails(details []InterviewDetail, sortBy string) {
	sort.SliceStable(details, func(i, j int) bool {
		if sortBy == "created_at" {
			return details[i].CreatedAt.After(details[j].CreatedAt)
		}
		return details[i].ScheduledAt.After(details[j].ScheduledAt)
	})
}

// Get 按主键查询单个面试
func (r *InterviewRepository) Get(ctx context.Context, interviewID string) (*models.Interview, error) {
	var row models.Interview
	err := r.db.WithContext(ctx).Where("interview_id = ?", interviewID).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("查询面试 %s 失败: %w", interviewID, translateStoreError(err))
	}
	return &row, nil
}

// Create 创建面试。候选人、招聘官、职位三方引用和面试时间全部必填，
// 缺任何一项在存储调用之前就拒绝；引用指向不存在的行由外键拒绝，
// 翻译为ErrConflict。
func (r *InterviewRepository) Create(ctx context.Context, iv *models.Interview) error {
	if strings.TrimSpace(iv.CandidateID) == "" {
		return validationError("面试必须关联候选人")
	}
	if strings.TrimSpace(iv.RecruiterID) == "" {
		return validationError("面试必须关联招聘官")
	}
	if strings.TrimSpace(iv.PostID) == "" {
		return validationError("面试必须关联职位")
	}
	if iv.ScheduledAt.IsZero() {
		return validationError("面试时间不能为空")
	}
	if iv.InterviewStatus == "" {
		iv.InterviewStatus = string(models.InterviewScheduled)
	}
	if !models.InterviewStatus(iv.InterviewStatus).Valid() {
		return validationError("未知的面试状态: %s", iv.InterviewStatus)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成面试ID失败: %w", err)
	}
	iv.InterviewID = id.String()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(iv).Error; err != nil {
			return translateStoreError(err)
		}
		summary := fmt.Sprintf("新面试排期: %s", iv.ScheduledAt.Format("2006-01-02 15:04"))
		return r.appendOutbox(tx, constants.KindInterview, constants.ActionCreated, iv.InterviewID, summary)
	})
	if err != nil {
		return fmt.Errorf("创建面试失败: %w", err)
	}

	// 面试变化会影响候选人视图（例如"已安排面试"徽标），一并失效
	r.invalidate(ctx, constants.KindInterview, constants.KindCandidate)
	return nil
}

// Update 稀疏更新面试字段。本方法只做枚举合法性校验，
// 不检查终态规则；需要终态保护的调用方走工作流引擎。
func (r *InterviewRepository) Update(ctx context.Context, interviewID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return validationError("更新内容不能为空")
	}
	if status, ok := updates["interview_status"]; ok {
		s, _ := status.(string)
		if !models.InterviewStatus(s).Valid() {
			return validationError("未知的面试状态: %v", status)
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Interview
		if err := tx.Where("interview_id = ?", interviewID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Model(&models.Interview{}).Where("interview_id = ?", interviewID).Updates(updates).Error; err != nil {
			return translateStoreError(err)
		}
		return r.appendOutbox(tx, constants.KindInterview, constants.ActionUpdated, interviewID, "面试信息更新")
	})
	if err != nil {
		return fmt.Errorf("更新面试 %s 失败: %w", interviewID, err)
	}

	r.invalidate(ctx, constants.KindInterview, constants.KindCandidate)
	return nil
}

// Delete 删除面试
func (r *InterviewRepository) Delete(ctx context.Context, interviewID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Interview
		if err := tx.Where("interview_id = ?", interviewID).First(&existing).Error; err != nil {
			return translateStoreError(err)
		}
		if err := tx.Where("interview_id = ?", interviewID).Delete(&models.Interview{}).Error; err != nil {
			return translateStoreError(err)
		}
		return r.appendOutbox(tx, constants.KindInterview, constants.ActionDeleted, interviewID, "面试已取消")
	})
	if err != nil {
		return fmt.Errorf("删除面试 %s 失败: %w", interviewID, err)
	}

	r.invalidate(ctx, constants.KindInterview, constants.KindCandidate)
	return nil
}
