package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newEngineFixture 引擎接真实仓储（sqlite后端），覆盖引擎与仓储的协作路径
func newEngineFixture(t *testing.T) (*Engine, *repo.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("%s?_foreign_keys=on", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(storage.AllModels()...))

	repos := repo.New(db, cache.NewMemoryQueryCache())
	return NewEngine(repos.Candidates, repos.Interviews), repos
}

func seedInterview(t *testing.T, repos *repo.Repository) *models.Interview {
	t.Helper()
	ctx := context.Background()

	post := &models.Post{Title: "Backend Engineer"}
	require.NoError(t, repos.Posts.Create(ctx, post))
	recruiter := &models.Recruiter{Name: "Carol", Email: "carol@example.com"}
	require.NoError(t, repos.Recruiters.Create(ctx, recruiter))
	candidate := &models.Candidate{Name: "Alice", Email: "alice@example.com", PostID: &post.PostID}
	require.NoError(t, repos.Candidates.Create(ctx, candidate))

	iv := &models.Interview{
		CandidateID: candidate.CandidateID,
		RecruiterID: recruiter.RecruiterID,
		PostID:      post.PostID,
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Location:    "Room 1",
	}
	require.NoError(t, repos.Interviews.Create(ctx, iv))
	return iv
}

func TestTransitionCandidate(t *testing.T) {
	engine, repos := newEngineFixture(t)
	ctx := context.Background()

	candidate := &models.Candidate{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, repos.Candidates.Create(ctx, candidate))

	require.NoError(t, engine.TransitionCandidate(ctx, candidate.CandidateID, models.ApplicationRelevant))
	got, err := repos.Candidates.Get(ctx, candidate.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ApplicationRelevant), got.ApplicationStatus)

	// 任意合法状态之间都可以来回迁移
	require.NoError(t, engine.TransitionCandidate(ctx, candidate.CandidateID, models.ApplicationRejectable))
	require.NoError(t, engine.TransitionCandidate(ctx, candidate.CandidateID, models.ApplicationToBeReviewed))

	err = engine.TransitionCandidate(ctx, candidate.CandidateID, "Hired")
	assert.ErrorIs(t, err, repo.ErrValidation)

	err = engine.TransitionCandidate(ctx, "no-such-id", models.ApplicationRelevant)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestTransitionInterviewTerminality(t *testing.T) {
	engine, repos := newEngineFixture(t)
	ctx := context.Background()
	iv := seedInterview(t, repos)

	require.NoError(t, engine.TransitionInterview(ctx, iv.InterviewID, models.InterviewRetained))
	got, err := repos.Interviews.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, string(models.InterviewRetained), got.InterviewStatus)

	// 终态迁出被拒绝
	err = engine.TransitionInterview(ctx, iv.InterviewID, models.InterviewScheduled)
	assert.ErrorIs(t, err, repo.ErrConflict)
	err = engine.TransitionInterview(ctx, iv.InterviewID, models.InterviewRejected)
	assert.ErrorIs(t, err, repo.ErrConflict)

	// 同状态迁移视为无操作
	require.NoError(t, engine.TransitionInterview(ctx, iv.InterviewID, models.InterviewRetained))

	err = engine.TransitionInterview(ctx, "no-such-id", models.InterviewRetained)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestEditInterviewDetails(t *testing.T) {
	engine, repos := newEngineFixture(t)
	ctx := context.Background()
	iv := seedInterview(t, repos)

	// Scheduled状态下编辑成功
	newLocation := "Room 9"
	require.NoError(t, engine.EditInterviewDetails(ctx, iv.InterviewID, nil, &newLocation, nil))
	got, err := repos.Interviews.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, "Room 9", got.Location)

	require.NoError(t, engine.TransitionInterview(ctx, iv.InterviewID, models.InterviewRetained))

	// 终态后引擎路径拒绝编辑
	blocked := "Room 10"
	err = engine.EditInterviewDetails(ctx, iv.InterviewID, nil, &blocked, nil)
	assert.ErrorIs(t, err, repo.ErrConflict)

	// 但裸仓储更新仍然放行，这是存储边界保留的已知缺口
	require.NoError(t, repos.Interviews.Update(ctx, iv.InterviewID, map[string]interface{}{
		"location": "Room 10",
	}))
	got, err = repos.Interviews.Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, "Room 10", got.Location)
}

func TestEditInterviewDetailsValidation(t *testing.T) {
	engine, repos := newEngineFixture(t)
	ctx := context.Background()
	iv := seedInterview(t, repos)

	err := engine.EditInterviewDetails(ctx, iv.InterviewID, nil, nil, nil)
	assert.ErrorIs(t, err, repo.ErrValidation)

	var zero time.Time
	err = engine.EditInterviewDetails(ctx, iv.InterviewID, &zero, nil, nil)
	assert.ErrorIs(t, err, repo.ErrValidation)
}
