package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "folio:revoked:"

// Blacklist records access tokens revoked by sign-out until they would
// have expired anyway. Without a Redis client it keeps entries in process.
// A nil *Blacklist revokes nothing.
type Blacklist struct {
	client *redis.Client

	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client, local: make(map[string]time.Time), now: time.Now}
}

// Revoke blacklists token for ttl.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || token == "" || ttl <= 0 {
		return nil
	}
	if b.client != nil {
		return b.client.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for t, exp := range b.local {
		if !now.Before(exp) {
			delete(b.local, t)
		}
	}
	b.local[token] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether token was revoked and is still blacklisted.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b == nil {
		return false, nil
	}
	if b.client != nil {
		n, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.local[token]
	return ok && b.now().Before(exp), nil
}
