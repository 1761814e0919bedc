package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"recruit-track-go/internal/cache"
	"recruit-track-go/internal/config"
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

func newRelayFixture(t *testing.T, cfg *config.WebhookConfig) (*Relay, *repo.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("%s?_foreign_keys=on", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(storage.AllModels()...))

	repos := repo.New(db, cache.NewMemoryQueryCache())
	return NewRelay(repos.Chat, repos.Settings, cfg), repos
}

func TestSendMessagePersistsBothSides(t *testing.T) {
	var gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMessage = r.URL.Query().Get("message")
		fmt.Fprint(w, "Here are today's candidates.")
	}))
	defer server.Close()

	relay, _ := newRelayFixture(t, &config.WebhookConfig{ChatAssistantURL: server.URL})
	ctx := context.Background()

	reply, err := relay.SendMessage(ctx, "u1", "show candidates")
	require.NoError(t, err)
	assert.Equal(t, "show candidates", gotMessage, "消息应作为URL编码的查询参数送达")
	assert.Equal(t, models.ChatRoleAssistant, reply.Role)
	assert.Equal(t, "Here are today's candidates.", reply.Content)

	// 双方消息按顺序落库
	history, err := relay.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ChatRoleUser, history[0].Role)
	assert.Equal(t, "show candidates", history[0].Content)
	assert.Equal(t, models.ChatRoleAssistant, history[1].Role)
}

func TestSendMessageUnquotesJSONStringResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `"quoted reply"`)
	}))
	defer server.Close()

	relay, _ := newRelayFixture(t, &config.WebhookConfig{ChatAssistantURL: server.URL})

	reply, err := relay.SendMessage(context.Background(), "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "quoted reply", reply.Content)
}

func TestSendMessageTransportFailureSynthesizesApology(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	relay, _ := newRelayFixture(t, &config.WebhookConfig{ChatAssistantURL: server.URL})
	ctx := context.Background()

	reply, err := relay.SendMessage(ctx, "u1", "hello")
	require.NoError(t, err, "传输失败合成道歉回复，不向调用方抛错")
	assert.Equal(t, models.ChatRoleAssistant, reply.Role)
	assert.Equal(t, apologyMessage, reply.Content)

	// 用户消息和道歉回复都已持久化
	history, err := relay.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, apologyMessage, history[1].Content)
}

func TestSendMessageValidation(t *testing.T) {
	relay, _ := newRelayFixture(t, &config.WebhookConfig{ChatAssistantURL: "http://unused"})

	_, err := relay.SendMessage(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, repo.ErrValidation)
}

func TestSettingOverridesConfigWebhook(t *testing.T) {
	configServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "from config")
	}))
	defer configServer.Close()
	settingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "from setting")
	}))
	defer settingServer.Close()

	relay, repos := newRelayFixture(t, &config.WebhookConfig{ChatAssistantURL: configServer.URL})
	ctx := context.Background()

	// 设置表里的地址优先于配置文件
	require.NoError(t, repos.Settings.Set(ctx,
		constants.SettingCategoryWebhooks, constants.SettingKeyChatAssistant, settingServer.URL))

	reply, err := relay.SendMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "from setting", reply.Content)
}

func TestTriggerEmailAssistant(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	relay, _ := newRelayFixture(t, &config.WebhookConfig{EmailAssistantURL: server.URL})

	require.NoError(t, relay.TriggerEmailAssistant(context.Background()))
	assert.Equal(t, http.MethodPost, method)
}

func TestTriggerEmailAssistantFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	relay, _ := newRelayFixture(t, &config.WebhookConfig{EmailAssistantURL: server.URL})

	err := relay.TriggerEmailAssistant(context.Background())
	assert.ErrorIs(t, err, repo.ErrTransport)

	relay2, _ := newRelayFixture(t, &config.WebhookConfig{})
	err = relay2.TriggerEmailAssistant(context.Background())
	assert.ErrorIs(t, err, repo.ErrTransport)
}
