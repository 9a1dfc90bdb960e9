package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TurnLocker serializes work on one session. Lock returns ErrTurnInProgress
// when the session is already held; the returned func releases it.
type TurnLocker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// LocalTurnLocker holds session locks in process memory. It only covers a
// single API replica.
type LocalTurnLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalTurnLocker() *LocalTurnLocker {
	return &LocalTurnLocker{held: make(map[string]struct{})}
}

func (l *LocalTurnLocker) Lock(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[sessionID]; busy {
		return nil, ErrTurnInProgress
	}
	l.held[sessionID] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, sessionID)
		l.mu.Unlock()
	}, nil
}

func (l *LocalTurnLocker) isHeld(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[sessionID]
	return busy
}

// DefaultTurnLockTTL bounds how long a crashed replica can block a session.
const DefaultTurnLockTTL = 30 * time.Second

// Deletes the lock only if it still carries our token.
var releaseTurnLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTurnLocker holds session locks in Redis so every replica sharing the
// session store sees them.
type RedisTurnLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisTurnLocker creates a shared locker. ttl must outlast the longest
// turn including the reply delay; ttl <= 0 means DefaultTurnLockTTL.
func NewRedisTurnLocker(client *redis.Client, ttl time.Duration) *RedisTurnLocker {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTurnLockTTL
	}
	return &RedisTurnLocker{redis: client, ttl: ttl}
}

func (l *RedisTurnLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := turnLockKey(sessionID)
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("chat: failed to lock session: %w", err)
	}
	if !ok {
		return nil, ErrTurnInProgress
	}
	return func() {
		// The caller's context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseTurnLock.Run(ctx, l.redis, []string{key}, token).Err()
	}, nil
}

func turnLockKey(id string) string {
	return fmt.Sprintf("chat:lock:%s", id)
}

var (
	_ TurnLocker = (*LocalTurnLocker)(nil)
	_ TurnLocker = (*RedisTurnLocker)(nil)
)
