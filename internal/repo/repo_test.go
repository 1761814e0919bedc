package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 打开带外键约束的sqlite测试库并迁移全部表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("%s?_foreign_keys=on", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(storage.AllModels()...))
	return db
}

// newTestRepos 创建测试仓储聚合，返回查询计数器用于断言缓存命中
func newTestRepos(t *testing.T) (*Repository, *int64) {
	t.Helper()
	db := newTestDB(t)

	var queryCount int64
	err := db.Callback().Query().After("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		atomic.AddInt64(&queryCount, 1)
	})
	require.NoError(t, err)

	return New(db, cache.NewMemoryQueryCache()), &queryCount
}

func mustCreateCandidate(t *testing.T, repos *Repository, name, email string, postID *string) *models.Candidate {
	t.Helper()
	c := &models.Candidate{Name: name, Email: email, PostID: postID}
	require.NoError(t, repos.Candidates.Create(context.Background(), c))
	return c
}

func mustCreatePost(t *testing.T, repos *Repository, title string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title}
	require.NoError(t, repos.Posts.Create(context.Background(), p))
	return p
}

func mustCreateRecruiter(t *testing.T, repos *Repository, name, email string) *models.Recruiter {
	t.Helper()
	r := &models.Recruiter{Name: name, Email: email}
	require.NoError(t, repos.Recruiters.Create(context.Background(), r))
	return r
}

func TestCandidateWriteThenRead(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c := mustCreateCandidate(t, repos, "Alice", "alice@example.com", nil)
	require.NotEmpty(t, c.CandidateID)
	assert.Equal(t, string(models.ApplicationToBeReviewed), c.ApplicationStatus)

	// 状态更新后立即读取必须看到新值
	err := repos.Candidates.Update(ctx, c.CandidateID, map[string]interface{}{
		"application_status": string(models.ApplicationRelevant),
	})
	require.NoError(t, err)

	got, err := repos.Candidates.Get(ctx, c.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ApplicationRelevant), got.ApplicationStatus)
}

func TestCandidateCreateValidation(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	err := repos.Candidates.Create(ctx, &models.Candidate{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	err = repos.Candidates.Create(ctx, &models.Candidate{Name: "NoMail"})
	assert.ErrorIs(t, err, ErrValidation)

	bad := 250
	err = repos.Candidates.Create(ctx, &models.Candidate{
		Name: "Bob", Email: "bob@example.com", RelevanceScore: &bad,
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = repos.Candidates.Create(ctx, &models.Candidate{
		Name: "Bob", Email: "bob@example.com", ApplicationStatus: "Hired",
	})
	assert.ErrorIs(t, err, ErrValidation)

	// 校验失败不产生任何行
	rows, err := repos.Candidates.List(ctx, CandidateFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCandidateUpdateNotFound(t *testing.T) {
	repos, _ := newTestRepos(t)

	err := repos.Candidates.Update(context.Background(), "no-such-id", map[string]interface{}{
		"name": "Ghost",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCandidateListFilters(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	post := mustCreatePost(t, repos, "Backend Engineer")
	mustCreateCandidate(t, repos, "Alice", "alice@example.com", &post.PostID)
	mustCreateCandidate(t, repos, "Bob", "bob@other.org", nil)

	byPost, err := repos.Candidates.List(ctx, CandidateFilter{PostID: post.PostID})
	require.NoError(t, err)
	require.Len(t, byPost, 1)
	assert.Equal(t, "Alice", byPost[0].Name)

	// 姓名/邮箱子串匹配不区分大小写
	bySearch, err := repos.Candidates.List(ctx, CandidateFilter{Search: "OTHER.ORG"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Bob", bySearch[0].Name)

	_, err = repos.Candidates.List(ctx, CandidateFilter{Status: "Bogus"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCacheIdempotence(t *testing.T) {
	repos, queryCount := newTestRepos(t)
	ctx := context.Background()

	mustCreateCandidate(t, repos, "Alice", "alice@example.com", nil)

	before := atomic.LoadInt64(queryCount)
	first, err := repos.Candidates.List(ctx, CandidateFilter{})
	require.NoError(t, err)
	afterFirst := atomic.LoadInt64(queryCount)
	assert.Greater(t, afterFirst, before, "首次查询应该落到存储层")

	// 无写入的情况下第二次相同查询不再触达存储层
	second, err := repos.Candidates.List(ctx, CandidateFilter{})
	require.NoError(t, err)
	assert.Equal(t, afterFirst, atomic.LoadInt64(queryCount), "第二次查询应命中缓存")
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].CandidateID, second[0].CandidateID)
	assert.Equal(t, first[0].Name, second[0].Name)

	// 写入使缓存失效，下一次查询重新触达存储层
	mustCreateCandidate(t, repos, "Bob", "bob@example.com", nil)
	third, err := repos.Candidates.List(ctx, CandidateFilter{})
	require.NoError(t, err)
	assert.Greater(t, atomic.LoadInt64(queryCount), afterFirst)
	assert.Len(t, third, 2)
}

func TestPostDeleteCascadesCandidates(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	post := mustCreatePost(t, repos, "Backend Engineer")
	mustCreateCandidate(t, repos, "Alice", "alice@example.com", &post.PostID)
	mustCreateCandidate(t, repos, "Standalone", "solo@example.com", nil)

	require.NoError(t, repos.Posts.Delete(ctx, post.PostID))

	rows, err := repos.Candidates.List(ctx, CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	for _, c := range rows {
		if c.PostID != nil {
			assert.NotEqual(t, post.PostID, *c.PostID)
		}
	}
}

func TestClosePostKeepsCandidates(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	post := mustCreatePost(t, repos, "Backend Engineer")
	mustCreateCandidate(t, repos, "Alice", "a@x.com", &post.PostID)

	rows, err := repos.Candidates.List(ctx, CandidateFilter{PostID: post.PostID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].Name)

	// 关闭职位只改职位自身，候选人保持关联
	err = repos.Posts.Update(ctx, post.PostID, map[string]interface{}{
		"post_status": string(models.PostClose),
	})
	require.NoError(t, err)

	rows, err = repos.Candidates.List(ctx, CandidateFilter{PostID: post.PostID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].Name)
}

func TestRecruiterDuplicateEmailConflict(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	mustCreateRecruiter(t, repos, "Carol", "carol@example.com")

	err := repos.Recruiters.Create(ctx, &models.Recruiter{Name: "Copy", Email: "carol@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInterviewCreateValidation(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	post := mustCreatePost(t, repos, "Backend Engineer")
	recruiter := mustCreateRecruiter(t, repos, "Carol", "carol@example.com")
	candidate := mustCreateCandidate(t, repos, "Alice", "alice@example.com", &post.PostID)
	scheduled := time.Now().Add(48 * time.Hour)

	cases := []models.Interview{
		{RecruiterID: recruiter.RecruiterID, PostID: post.PostID, ScheduledAt: scheduled},
		{CandidateID: candidate.CandidateID, PostID: post.PostID, ScheduledAt: scheduled},
		{CandidateID: candidate.CandidateID, RecruiterID: recruiter.RecruiterID, ScheduledAt: scheduled},
		{CandidateID: candidate.CandidateID, RecruiterID: recruiter.RecruiterID, PostID: post.PostID},
	}
	for _, iv := range cases {
		iv := iv
		err := repos.Interviews.Create(ctx, &iv)
		assert.ErrorIs(t, err, ErrValidation)
	}

	// 缺字段的请求从未触达存储层
	var count int64
	require.NoError(t, repos.Interviews.db.Model(&models.Interview{}).Count(&count).Error)
	assert.Zero(t, count)

	// 引用不存在的行由外键拒绝
	err := repos.Interviews.Create(ctx, &models.Interview{
		CandidateID: candidate.CandidateID,
		RecruiterID: recruiter.RecruiterID,
		PostID:      "00000000-0000-0000-0000-000000000000",
		ScheduledAt: scheduled,
	})
	assert.ErrorIs(t, err, ErrConflict)

	ok := models.Interview{
		CandidateID: candidate.CandidateID,
		RecruiterID: recruiter.RecruiterID,
		PostID:      post.PostID,
		ScheduledAt: scheduled,
	}
	require.NoError(t, repos.Interviews.Create(ctx, &ok))
	assert.Equal(t, string(models.InterviewScheduled), ok.InterviewStatus)
}

func TestInterviewListDetails(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	post := mustCreatePost(t, repos, "Backend Engineer")
	recruiter := mustCreateRecruiter(t, repos, "Carol", "carol@example.com")
	candidate := mustCreateCandidate(t, repos, "Alice", "alice@example.com", &post.PostID)

	early := models.Interview{
		CandidateID: candidate.CandidateID, RecruiterID: recruiter.RecruiterID,
		PostID: post.PostID, ScheduledAt: time.Now().Add(24 * time.Hour),
	}
	late := models.Interview{
		CandidateID: candidate.CandidateID, RecruiterID: recruiter.RecruiterID,
		PostID: post.PostID, ScheduledAt: time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, repos.Interviews.Create(ctx, &early))
	require.NoError(t, repos.Interviews.Create(ctx, &late))

	details, err := repos.Interviews.List(ctx, InterviewFilter{CandidateID: candidate.CandidateID})
	require.NoError(t, err)
	require.Len(t, details, 2)

	// 投影携带三方显示字段，默认按面试时间降序
	assert.Equal(t, late.InterviewID, details[0].InterviewID)
	assert.Equal(t, "Alice", details[0].CandidateName)
	assert.Equal(t, "Carol", details[0].RecruiterName)
	assert.Equal(t, "Backend Engineer", details[0].PostTitle)
}

func TestInterviewRepoUpdateIsPermissive(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	post := mustCreatePost(t, repos, "Backend Engineer")
	recruiter := mustCreateRecruiter(t, repos, "Carol", "carol@example.com")
	candidate := mustCreateCandidate(t, repos, "Alice", "alice@example.com", &post.PostID)

	iv := models.Interview{
		CandidateID: candidate.CandidateID, RecruiterID: recruiter.RecruiterID,
		PostID: post.PostID, ScheduledAt: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, repos.Interviews.Create(ctx, &iv))

	require.NoError(t, repos.Interviews.Update(ctx, iv.InterviewID, map[string]interface{}{
		"interview_status": string(models.InterviewRetained),
	}))

	// 终态保护在工作流引擎层，裸仓储更新保持宽松
	err := repos.Interviews.Update(ctx, iv.InterviewID, map[string]interface{}{
		"location": "Room 2",
	})
	require.NoError(t, err)

	got, err := repos.Interviews.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, "Room 2", got.Location)
}

func TestWritesAppendOutboxRows(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c := mustCreateCandidate(t, repos, "Alice", "alice@example.com", nil)
	require.NoError(t, repos.Candidates.Update(ctx, c.CandidateID, map[string]interface{}{"phone": "123"}))
	require.NoError(t, repos.Candidates.Delete(ctx, c.CandidateID))

	var rows []models.OutboxMessage
	require.NoError(t, repos.Candidates.db.Order("created_at asc").Find(&rows).Error)
	require.Len(t, rows, 3)

	assert.Equal(t, constants.KindCandidate+"."+constants.ActionCreated, rows[0].EventType)
	assert.Equal(t, constants.KindCandidate+"."+constants.ActionUpdated, rows[1].EventType)
	assert.Equal(t, constants.KindCandidate+"."+constants.ActionDeleted, rows[2].EventType)
	for _, row := range rows {
		assert.Equal(t, "PENDING", row.Status)
		assert.Equal(t, constants.EntityEventsExchange, row.TargetExchange)
		assert.Equal(t, c.CandidateID, row.AggregateID)
	}
}

func TestSettingsUpsert(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Settings.Get(ctx, "webhooks", "chat_assistant")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repos.Settings.Set(ctx, "webhooks", "chat_assistant", "http://first"))
	require.NoError(t, repos.Settings.Set(ctx, "webhooks", "chat_assistant", "http://second"))

	value, err := repos.Settings.Get(ctx, "webhooks", "chat_assistant")
	require.NoError(t, err)
	assert.Equal(t, "http://second", value)
}

func TestChatHistoryPerUser(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	for _, m := range []models.ChatMessage{
		{UserID: "u1", Role: models.ChatRoleUser, Content: "hello"},
		{UserID: "u1", Role: models.ChatRoleAssistant, Content: "hi"},
		{UserID: "u2", Role: models.ChatRoleUser, Content: "other"},
	} {
		m := m
		require.NoError(t, repos.Chat.Append(ctx, &m))
	}

	u1, err := repos.Chat.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1, 2)
	assert.Equal(t, "hello", u1[0].Content)
	assert.Equal(t, "hi", u1[1].Content)

	// 清空只影响调用方自己的历史
	require.NoError(t, repos.Chat.ClearHistory(ctx, "u1"))
	u1, err = repos.Chat.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, u1)

	u2, err := repos.Chat.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, u2, 1)
}

func TestNotificationAppendAndList(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	id := "item-1"
	first := models.Notification{ItemType: constants.KindCandidate, ItemID: &id, Message: "first"}
	require.NoError(t, repos.Notifications.Append(ctx, &first))
	require.NotEmpty(t, first.NotificationID)

	second := models.Notification{ItemType: constants.KindPost, Message: "second"}
	require.NoError(t, repos.Notifications.Append(ctx, &second))

	rows, err := repos.Notifications.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
