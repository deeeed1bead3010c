// Package session tracks revoked access tokens so logout takes effect
// before the token expires.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisDenylist stores one key per revoked token with a matching TTL.
type RedisDenylist struct {
	rdb *redis.Client
}

// NewRedisDenylist returns a Denylist backed by rdb.
func NewRedisDenylist(rdb *redis.Client) *RedisDenylist { return &RedisDenylist{rdb: rdb} }

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, "revoked:"+tokenID, 1, ttl).Err()
}

func (d *RedisDenylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	err := d.rdb.Get(ctx, "revoked:"+tokenID).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// MemoryDenylist is the in-process fallback.  Entries are pruned lazily.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryDenylist returns an empty MemoryDenylist.
func NewMemoryDenylist() *MemoryDenylist { return &MemoryDenylist{entries: map[string]time.Time{}} }

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for id, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, id)
		}
	}
	if until.After(now) {
		d.entries[tokenID] = until
	}
	return nil
}

func (d *MemoryDenylist) Revoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.entries[tokenID]
	return ok && exp.After(time.Now()), nil
}
