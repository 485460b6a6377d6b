package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/folio-cms/folio/internal/config"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/store"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()

	require.Nil(t, b.Redis)
	require.Nil(t, b.Mongo)
	require.Empty(t, b.Checks)

	p := store.Doc(content.ContentCollection, "hero")
	require.NoError(t, b.Store.Write(ctx, p, content.Fields{"title": content.String("Hi")}, true))
	s, err := b.Store.ReadOnce(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "Hi", s.Fields.Get("title"))

	// no owner configured is not an error
	require.NoError(t, b.SeedOwner(ctx, cfg))
}

func TestOpenWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	ctx := context.Background()
	cfg := &config.Config{}
	cfg.Redis.Host, cfg.Redis.Port = host, port
	cfg.Owner.Email, cfg.Owner.Name, cfg.Owner.Password = "me@folio.dev", "Me", "s3cret"

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.Redis)
	require.Contains(t, b.Checks, "redis")
	require.NoError(t, b.Checks["redis"](ctx))

	require.NoError(t, b.SeedOwner(ctx, cfg))
	u, err := b.Users.Authenticate(ctx, "me@folio.dev", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "Me", u.Name)

	// sessions and revocations live in Redis
	refresh, err := b.Sessions.CreateSession(ctx, u.Sub, time.Hour)
	require.NoError(t, err)
	require.True(t, mr.Exists("folio:session:"+refresh))
	require.NoError(t, b.Blacklist.Revoke(ctx, "tok", time.Minute))
	require.True(t, mr.Exists("folio:revoked:tok"))
}

func TestOpenRedisUnreachableFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	mr.Close()

	cfg := &config.Config{}
	cfg.Redis.Host, cfg.Redis.Port = host, port
	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()
	require.Nil(t, b.Redis)
	require.NotContains(t, b.Checks, "redis")
}
