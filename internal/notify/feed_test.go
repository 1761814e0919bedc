package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/constants"
	"recruit-track-go/internal/repo"
	"recruit-track-go/internal/storage"
	"recruit-track-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newFeedFixture(t *testing.T) (*Feed, *repo.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("%s?_foreign_keys=on", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(storage.AllModels()...))

	repos := repo.New(db, cache.NewMemoryQueryCache())
	feed := NewFeed(nil, repos.Notifications, 100, 1600)
	return feed, repos
}

func eventBody(t *testing.T, message string) []byte {
	t.Helper()
	body, err := json.Marshal(storage.NotificationEventMessage{
		NotificationID: "n-1",
		ItemType:       constants.KindCandidate,
		Message:        message,
	})
	require.NoError(t, err)
	return body
}

func TestFeedUnseenFlag(t *testing.T) {
	feed, _ := newFeedFixture(t)
	feed.generation = 1

	assert.False(t, feed.Unseen())

	// 不在通知视图时新事件点亮未读标志
	feed.apply(1, eventBody(t, "新候选人申请: Alice"))
	assert.True(t, feed.Unseen())
	assert.Len(t, feed.SessionLog(), 1)
}

func TestFeedOpenViewClearsUnseen(t *testing.T) {
	feed, repos := newFeedFixture(t)
	feed.generation = 1
	ctx := context.Background()

	require.NoError(t, repos.Notifications.Append(ctx, &models.Notification{
		ItemType: constants.KindCandidate, Message: "durable row",
	}))

	feed.apply(1, eventBody(t, "ping"))
	require.True(t, feed.Unseen())

	// 进入通知视图：无条件清除标志并返回持久日志
	rows, err := feed.OpenNotificationsView(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "durable row", rows[0].Message)
	assert.False(t, feed.Unseen())

	// 停留在视图中时新事件不点亮标志
	feed.apply(1, eventBody(t, "while viewing"))
	assert.False(t, feed.Unseen())
	assert.Len(t, feed.SessionLog(), 2)

	// 离开视图后恢复点亮行为
	feed.LeaveNotificationsView()
	feed.apply(1, eventBody(t, "after leaving"))
	assert.True(t, feed.Unseen())
}

func TestFeedDiscardsStaleGeneration(t *testing.T) {
	feed, _ := newFeedFixture(t)
	feed.generation = 2

	// 上一世代的迟到投递被丢弃
	feed.apply(1, eventBody(t, "stale"))
	assert.False(t, feed.Unseen())
	assert.Empty(t, feed.SessionLog())

	feed.apply(2, eventBody(t, "current"))
	assert.True(t, feed.Unseen())
	assert.Len(t, feed.SessionLog(), 1)
}

func TestFeedIgnoresMalformedEvent(t *testing.T) {
	feed, _ := newFeedFixture(t)
	feed.generation = 1

	feed.apply(1, []byte("not-json"))
	assert.False(t, feed.Unseen())
	assert.Empty(t, feed.SessionLog())
}
