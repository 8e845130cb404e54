// Package cache builds the Redis client shared by the response cache and the
// rate limiter. Both degrade to pass-through when the client is nil.
package cache

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asesorame/asesorame/pkg/config"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// LoadRedisConfig reads REDIS_HOST+REDIS_PORT, falling back to REDIS_ADDR.
func LoadRedisConfig() RedisConfig {
	addr := config.EnvDefault("REDIS_ADDR", "")
	host := config.EnvDefault("REDIS_HOST", "")
	port := config.EnvDefault("REDIS_PORT", "")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: config.EnvDefault("REDIS_PASSWORD", ""),
		DB:       config.EnvIntDefault("REDIS_DB", 0),
		TLS:      config.EnvBoolDefault("REDIS_TLS", false),
	}
}

// NewRedisClient returns nil when no address is configured or the server
// does not answer a ping within two seconds.
func NewRedisClient(ctx context.Context, cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
