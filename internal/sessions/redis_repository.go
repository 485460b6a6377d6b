package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "folio:session:"

// RedisRepository keeps each owner session as a JSON value under
// <prefix><refreshToken>. The key expires with the session, so nothing has
// to sweep stale refresh tokens.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string {
	return r.prefix + refresh
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session for %s already expired", s.Sub)
	}
	return r.client.Set(ctx, r.key(s.RefreshToken), b, ttl).Err()
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	return decodeSession(r.client.Get(ctx, r.key(refresh)).Bytes())
}

// TakeByRefresh uses GETDEL: of two concurrent refreshes only one wins.
func (r *RedisRepository) TakeByRefresh(ctx context.Context, refresh string) (*Session, error) {
	return decodeSession(r.client.GetDel(ctx, r.key(refresh)).Bytes())
}

func decodeSession(b []byte, err error) (*Session, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	return r.client.Del(ctx, r.key(refresh)).Err()
}
