package interview

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockinterview/internal/redis"
)

// ErrLocked is returned by TryLock when another request holds the session.
var ErrLocked = errors.New("session is locked")

// Locker serializes mutating operations on one session. TryLock never waits: it
// either returns a release func or ErrLocked.
type Locker interface {
	TryLock(ctx context.Context, sessionID int64) (release func(), err error)
}

// LocalLocker is an in-process Locker for single instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

// NewLocalLocker returns an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[int64]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, sessionID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[sessionID]; busy {
		return nil, ErrLocked
	}
	l.held[sessionID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, sessionID)
			l.mu.Unlock()
		})
	}, nil
}

const redisLockPrefix = "interview:session:lock:"

// RedisLocker shares session locks between instances through redis SET NX.
// The ttl bounds how long a crashed holder can block a session.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds a RedisLocker; ttl should exceed the gateway timeout.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

func (l *RedisLocker) TryLock(ctx context.Context, sessionID int64) (func(), error) {
	key := redisLockPrefix + strconv.FormatInt(sessionID, 10)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := l.client.ReleaseIfOwner(releaseCtx, key, token); err != nil {
				l.logger.Warn("release session lock", zap.Int64("session_id", sessionID), zap.Error(err))
			}
		})
	}, nil
}
