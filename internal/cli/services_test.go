package cli

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func memoryConfig() *config.Config {
	return &config.Config{
		DataBackend:     "memory",
		ProfileCacheTTL: time.Minute,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func TestBuildServicesMemory(t *testing.T) {
	ctx := context.Background()
	svc, err := BuildServices(ctx, memoryConfig(), log.New(log.DefaultConfig()), ServiceOptions{Events: true})
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.Backend.Ping(ctx))
	e, err := svc.Expenses.Create(ctx, core.CreateExpenseInput{
		UserID: "u1", AmountMinor: 1999, Currency: "USD", Category: "Food", OccurredAt: "2025-10-15T12:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-10", e.MonthKey)
}

func TestBuildServicesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	ctx := context.Background()
	svc, err := BuildServices(ctx, cfg, log.New(log.DefaultConfig()), ServiceOptions{})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Profiles.Upsert(ctx, core.UpdateProfileInput{UserID: "u1"}, "ada@example.com")
	require.NoError(t, err)
	got, err := svc.Profiles.BatchGet(ctx, []string{"u1"})
	require.NoError(t, err)
	assert.Contains(t, got, "u1")
	assert.NotEmpty(t, mr.Keys(), "profile written to redis")
}

func TestBuildServicesBadRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"
	_, err := BuildServices(context.Background(), cfg, log.New(log.DefaultConfig()), ServiceOptions{})
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	l := SetupLogger("debug", "json")
	require.NotNil(t, l)
	assert.True(t, l.Enabled(context.Background(), -4))

	l = SetupLogger("nonsense", "text")
	assert.False(t, l.Enabled(context.Background(), -4))
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, err := BuildServices(context.Background(), memoryConfig(), log.New(log.DefaultConfig()), ServiceOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
}
