// Package bootstrap wires shared infrastructure for the API server and the
// conversation worker so both binaries build the stack the same way.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/elroble/vendibot/internal/catalog"
	appconfig "github.com/elroble/vendibot/internal/config"
	"github.com/elroble/vendibot/internal/conversation"
	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore returns a Redis-backed session store when configured and
// reachable, otherwise the in-process store. Both apply the same capacity
// and TTL limits.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) conversation.SessionStore {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseRedisSess {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("using redis session store", "addr", cfg.RedisAddr)
			return conversation.NewRedisSessionStore(client, cfg.SessionCapacity, cfg.SessionTTL)
		}
		logger.Warn("redis sessions requested but unavailable, falling back to memory")
	}
	return conversation.NewMemorySessionStore(cfg.SessionCapacity, cfg.SessionTTL)
}

// BuildRepositories returns the catalog and order repositories. Without a
// database pool both fall back to in-memory stores, which keeps local
// development working with zero infrastructure.
func BuildRepositories(pool *pgxpool.Pool, logger *logging.Logger) (catalog.Repository, orders.Repository) {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("no database configured, using in-memory repositories")
		return catalog.NewInMemoryRepository(), orders.NewInMemoryRepository()
	}
	return catalog.NewPostgresRepository(pool), orders.NewPostgresRepository(pool)
}

// BuildTranscriptStore wires durable transcript persistence when a SQL
// database is available. A nil store is valid and disables transcripts.
func BuildTranscriptStore(db *sql.DB, logger *logging.Logger) *conversation.TranscriptStore {
	if db == nil {
		return nil
	}
	return conversation.NewTranscriptStore(db, logger)
}
