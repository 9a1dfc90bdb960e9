package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/healthcare-assistant/internal/alerts"
	"github.com/wolfman30/healthcare-assistant/internal/auth"
	"github.com/wolfman30/healthcare-assistant/internal/bookings"
	"github.com/wolfman30/healthcare-assistant/internal/chat"
	appconfig "github.com/wolfman30/healthcare-assistant/internal/config"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

const redisPingTimeout = 3 * time.Second

// BuildRedisClient connects the chat session store's Redis. It returns nil
// when REDIS_ADDR is blank or, with verify set, when the server does not
// answer a ping within redisPingTimeout.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:     strings.TrimSpace(cfg.RedisAddr),
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, chat sessions fall back to memory", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", opts.Addr, "tls", cfg.RedisTLS)
	return client
}

// BuildPostgresPool connects to DATABASE_URL. An empty URL or a failed
// connection returns nil and the API runs on in-memory repositories.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// Repositories groups the persistence layer shared by the API and the
// reminder sweep.
type Repositories struct {
	Users    auth.Repository
	Bookings bookings.Repository
	Alerts   alerts.Repository
}

// BuildRepositories returns postgres repositories when pool is set and
// in-memory ones otherwise.
func BuildRepositories(pool *pgxpool.Pool, logger *logging.Logger) Repositories {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("DATABASE_URL not set, data is kept in memory only")
		return Repositories{
			Users:    auth.NewInMemoryRepository(),
			Bookings: bookings.NewInMemoryRepository(),
			Alerts:   alerts.NewInMemoryRepository(),
		}
	}
	return Repositories{
		Users:    auth.NewPostgresRepository(pool),
		Bookings: bookings.NewPostgresRepository(pool),
		Alerts:   alerts.NewPostgresRepository(pool),
	}
}

// BuildSessionStore picks where chat sessions live. Redis is used when
// configured and reachable, otherwise sessions stay in process memory.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) chat.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseRedisSessions() {
		if redisClient != nil {
			logger.Info("chat sessions stored in redis", "ttl", cfg.ChatSessionTTL.String())
			return chat.NewRedisStore(redisClient, cfg.ChatSessionTTL)
		}
		logger.Warn("redis session store selected but redis is unavailable, using memory")
	}
	return chat.NewMemoryStore(cfg.ChatSessionTTL)
}

// BuildTurnLocker shares the one-turn-per-session lock through Redis whenever
// sessions live there, so replicas cannot interleave turns. The lock outlives
// the reply delay by DefaultTurnLockTTL.
func BuildTurnLocker(cfg *appconfig.Config, redisClient *redis.Client) chat.TurnLocker {
	if cfg.UseRedisSessions() && redisClient != nil {
		return chat.NewRedisTurnLocker(redisClient, cfg.ChatReplyDelay+chat.DefaultTurnLockTTL)
	}
	return chat.NewLocalTurnLocker()
}
