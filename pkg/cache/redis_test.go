package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadRedisConfig_HostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6380", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
	assert.False(t, cfg.TLS)
}

func TestNewRedisClient_NoAddr(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewRedisClient(context.Background(), RedisConfig{}))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewRedisClient(context.Background(), RedisConfig{Addr: "127.0.0.1:1"}))
}
