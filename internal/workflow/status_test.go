package workflow

import (
	"testing"
	"time"

	"recruit-track-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionCandidate(t *testing.T) {
	statuses := []models.ApplicationStatus{
		models.ApplicationToBeReviewed,
		models.ApplicationRelevant,
		models.ApplicationRejectable,
	}
	// 候选人状态图是扁平的：任意两个合法状态之间都允许迁移
	for _, from := range statuses {
		for _, to := range statuses {
			assert.True(t, CanTransitionCandidate(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransitionCandidate(models.ApplicationRelevant, "Hired"))
	assert.False(t, CanTransitionCandidate("Unknown", models.ApplicationRelevant))
}

func TestCanTransitionInterview(t *testing.T) {
	assert.True(t, CanTransitionInterview(models.InterviewScheduled, models.InterviewRetained))
	assert.True(t, CanTransitionInterview(models.InterviewScheduled, models.InterviewRejected))
	assert.True(t, CanTransitionInterview(models.InterviewRetained, models.InterviewRetained))

	// 终态不允许迁出
	assert.False(t, CanTransitionInterview(models.InterviewRetained, models.InterviewScheduled))
	assert.False(t, CanTransitionInterview(models.InterviewRejected, models.InterviewRetained))
	assert.False(t, CanTransitionInterview(models.InterviewScheduled, "Cancelled"))
}

func TestIsTerminalInterview(t *testing.T) {
	assert.False(t, IsTerminalInterview(models.InterviewScheduled))
	assert.True(t, IsTerminalInterview(models.InterviewRetained))
	assert.True(t, IsTerminalInterview(models.InterviewRejected))
}

func TestIsPastIsUpcoming(t *testing.T) {
	now := time.Now()
	assert.True(t, IsPast(now.Add(-time.Hour), now))
	assert.False(t, IsPast(now.Add(time.Hour), now))
	assert.True(t, IsUpcoming(now.Add(time.Hour), now))
	assert.False(t, IsUpcoming(now.Add(-time.Hour), now))
}

func TestScoreConversions(t *testing.T) {
	// 持久化统一0-100分制，展示层换算为10分制和5星制
	assert.InDelta(t, 8.5, ScoreOutOfTen(85), 0.001)
	assert.InDelta(t, 4.25, ScoreStars(85), 0.001)
	assert.InDelta(t, 0.0, ScoreOutOfTen(0), 0.001)
	assert.InDelta(t, 5.0, ScoreStars(100), 0.001)
}
