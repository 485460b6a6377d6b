package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, prefix string) (*RedisRepository, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client, prefix), m
}

func ownerSession(refresh string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{RefreshToken: refresh, Sub: "local|me@folio.dev", CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestRedisRepository_KeyAndTTLFollowSession(t *testing.T) {
	repo, m := newRedisRepo(t, "")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, ownerSession("r1", time.Hour)))
	require.True(t, m.Exists("folio:session:r1"))
	require.InDelta(t, time.Hour.Seconds(), m.TTL("folio:session:r1").Seconds(), 5)

	got, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "local|me@folio.dev", got.Sub)

	m.FastForward(time.Hour + time.Second)
	got, err = repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepository_RejectsExpiredSession(t *testing.T) {
	repo, m := newRedisRepo(t, "test:session:")
	err := repo.Create(context.Background(), ownerSession("old", -time.Minute))
	require.Error(t, err)
	require.False(t, m.Exists("test:session:old"))
}

func TestRedisRepository_TakeRedeemsOnce(t *testing.T) {
	repo, _ := newRedisRepo(t, "")
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, ownerSession("r2", time.Hour)))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := repo.TakeByRefresh(ctx, "r2")
			assert.NoError(t, err)
			if s != nil {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, taken)

	got, err := repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepository_RotateThroughService(t *testing.T) {
	repo, _ := newRedisRepo(t, "")
	svc := NewService(repo)
	ctx := context.Background()

	r1, err := svc.CreateSession(ctx, "local|me@folio.dev", time.Hour)
	require.NoError(t, err)
	_, r2, err := svc.Rotate(ctx, r1, time.Hour)
	require.NoError(t, err)

	_, _, err = svc.Rotate(ctx, r1, time.Hour)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	require.NoError(t, svc.DeleteRefresh(ctx, r2))
	_, err = svc.ValidateRefresh(ctx, r2)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
