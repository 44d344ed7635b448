package main

import (
	"context"
	"path/filepath"
	"testing"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, redisAddr string) config.Config {
	t.Helper()
	return config.Config{
		DBDriver:  "sqlite",
		DBDSN:     filepath.Join(t.TempDir(), "admin.db"),
		RedisAddr: redisAddr,
	}
}

// serverStorage builds the Service the way the chat server does.
func serverStorage(t *testing.T, cfg config.Config) *storage.Service {
	t.Helper()
	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	t.Cleanup(func() { _ = rdb.Close() })
	return storage.NewStorageService(db, rdb)
}

func TestClearConversations_EvictsServerCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr.Addr())
	ctx := context.Background()

	server := serverStorage(t, cfg)
	saved := []models.Conversation{{PartnerUsername: "bob", Messages: []models.Message{{ID: "m1", Text: "hi"}}}}
	require.NoError(t, server.SaveConversations(ctx, "client-1", saved))

	admin, err := openStorage(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, admin.Redis)

	require.NoError(t, clearConversations(ctx, admin, true, "client-1"))

	assert.False(t, mr.Exists("localstorage:client-1:"+config.ConversationsStorageKey))
	loaded, err := server.LoadConversations(ctx, "client-1")
	require.NoError(t, err)
	assert.Nil(t, loaded, "the server must not serve the cleared history")
}

func TestClearConversations_RefusesWhenCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr.Addr())
	mr.Close()
	ctx := context.Background()

	admin, err := openStorage(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, admin.Redis)

	err = clearConversations(ctx, admin, cfg.RedisAddr != "", "client-1")
	assert.ErrorIs(t, err, errCacheUnavailable)
}

func TestClearConversations_WithoutCacheConfigured(t *testing.T) {
	cfg := testConfig(t, "")
	ctx := context.Background()

	admin, err := openStorage(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, admin.SaveConversations(ctx, "client-1", []models.Conversation{{PartnerUsername: "bob"}}))

	require.NoError(t, clearConversations(ctx, admin, false, "client-1"))
	loaded, err := admin.LoadConversations(ctx, "client-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
