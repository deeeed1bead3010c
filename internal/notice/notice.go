// Package notice keeps short advisory messages for a user until that user
// reads them.  Reading removes them: each notice is delivered once.
package notice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store queues notices per user.
type Store interface {
	Push(ctx context.Context, userID uint64, msg string) error
	// Pop returns the pending notices for userID in the order they were
	// pushed and clears them.
	Pop(ctx context.Context, userID uint64) ([]string, error)
}

// RedisStore keeps one list per user.  Unread lists expire after ttl.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a Store backed by rdb.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "notice", ttl: ttl}
}

func (s *RedisStore) key(userID uint64) string { return fmt.Sprintf("%s:%d", s.prefix, userID) }

func (s *RedisStore) Push(ctx context.Context, userID uint64, msg string) error {
	key := s.key(userID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, msg)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Pop reads and deletes the list in one MULTI block so concurrent readers
// cannot both see the same notice.
func (s *RedisStore) Pop(ctx context.Context, userID uint64) ([]string, error) {
	key := s.key(userID)
	pipe := s.rdb.TxPipeline()
	lr := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return lr.Val(), nil
}

// MemoryStore is the in-process Store used when Redis is unavailable and
// in tests.
type MemoryStore struct {
	mu   sync.Mutex
	msgs map[uint64][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{msgs: map[uint64][]string{}} }

func (s *MemoryStore) Push(_ context.Context, userID uint64, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs[userID] = append(s.msgs[userID], msg)
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, userID uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs[userID]
	delete(s.msgs, userID)
	return out, nil
}
