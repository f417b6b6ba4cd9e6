package main

import (
	"context"
	"testing"
	"time"

	"github.com/kiranshivaraju/contentgen/internal/ai"
	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	clearConfigEnv(t)

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AI_PROVIDER", "mock")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

func TestRun_FailsOnUnreachableRedis(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1")
	t.Setenv("AI_PROVIDER", "mock")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

// ─── openStore ──────────────────────────────────────────────────────────────

func TestOpenStore_MemoryBackend(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.StoreMemory}}

	st, closeFn, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	_, ok := st.(*store.MemoryStore)
	assert.True(t, ok)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpenStore_PostgresBadURL(t *testing.T) {
	cfg := &config.Config{
		Store:    config.StoreConfig{Backend: config.StorePostgres},
		Database: config.DatabaseConfig{URL: "://bad", MaxOpenConns: 1},
	}

	_, _, err := openStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown ───────────────────────────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}

func TestWaitForWorkers_NoJobs(t *testing.T) {
	svc := ai.NewGenerationService(nil, store.NewMemoryStore(), nil, nil, nil, ai.Timeouts{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, waitForWorkers(ctx, svc))
}

// ─── helper: clear env ──────────────────────────────────────────────────────

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORE_BACKEND", "DATABASE_URL", "REDIS_URL", "AI_PROVIDER",
		"POE_API_KEY", "AUTH_MODE", "LOG_FILE", "PROMPTS_FILE",
	} {
		t.Setenv(key, "")
	}
}
