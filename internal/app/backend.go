// Package app connects the configured backends: Mongo or memory for
// content and accounts, Redis for change notices, sessions and revocations.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-cms/folio/internal/config"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/database"
	"github.com/folio-cms/folio/internal/retry"
	"github.com/folio-cms/folio/internal/sessions"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/internal/store/repository"
	"github.com/folio-cms/folio/internal/users"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var mongoDial = retry.Policy{Attempts: 5, Base: time.Second, Max: 8 * time.Second}

// Backend holds the open connections and the services built on them.
type Backend struct {
	Redis *redis.Client
	Mongo *mongo.Client

	Repo      store.Repository
	Store     *store.Live
	Users     *users.Service
	Sessions  *sessions.Service
	Blacklist *sessions.Blacklist

	// Checks are readiness probes for the external dependencies in use.
	Checks map[string]func(context.Context) error
}

// Open connects what cfg configures. Unreachable optional services are
// logged and replaced by in-process fallbacks.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Checks: map[string]func(context.Context) error{}}

	if addr := cfg.Redis.Addr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = client.Close()
		} else {
			logger.Infof("connected to Redis at %s", addr)
			b.Redis = client
			b.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	var db *mongo.Database
	if cfg.MongoDB.URI != "" {
		client, err := database.Dial(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoDial)
		if err != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", mongoDial.Attempts, err)
		} else {
			b.Mongo = client
			db = client.Database(cfg.MongoDB.Database)
			b.Checks["mongodb"] = database.Ping(client)
		}
	}

	var userRepo users.UserRepository
	if db != nil {
		b.Repo = repository.NewMongoRepo(ctx, db,
			content.ContentCollection, content.SkillsCollection, content.ExperienceCollection, content.ProjectsCollection)
		userRepo = users.NewMongoUserRepository(db.Collection("users"))
	} else {
		logger.Warnf("MongoDB not available: content and accounts are kept in memory")
		b.Repo = repository.NewMemoryRepo()
		userRepo = users.NewMemoryUserRepository()
	}
	b.Users = users.NewService(userRepo)

	// Redis sessions expire on their own; prefer them over Mongo.
	var sessRepo sessions.Repository
	switch {
	case b.Redis != nil:
		sessRepo = sessions.NewRedisRepository(b.Redis, "")
	case db != nil:
		sessRepo = sessions.NewMongoRepository(ctx, db.Collection("sessions"))
	default:
		sessRepo = sessions.NewMemoryRepository()
	}
	b.Sessions = sessions.NewService(sessRepo)
	b.Blacklist = sessions.NewBlacklist(b.Redis)

	var bus store.Bus
	if b.Redis != nil {
		bus = store.NewRedisBus(b.Redis, cfg.Redis.Channel)
	}
	live, err := store.NewLive(ctx, b.Repo, bus)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open live store: %w", err)
	}
	b.Store = live
	return b, nil
}

// SeedOwner creates or refreshes the owner account from cfg. Without an
// owner email nothing happens.
func (b *Backend) SeedOwner(ctx context.Context, cfg *config.Config) error {
	if cfg.Owner.Email == "" {
		logger.Warnf("OWNER_EMAIL is not set: password sign-in is disabled")
		return nil
	}
	if _, err := b.Users.EnsureOwner(ctx, cfg.Owner.Email, cfg.Owner.Name, cfg.Owner.Password, cfg.Owner.PasswordHash); err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}
	logger.Infof("owner account ready: %s", cfg.Owner.Email)
	return nil
}

// Close releases everything Open connected. Safe on a partial Backend.
func (b *Backend) Close() {
	if b.Store != nil {
		b.Store.Close()
	}
	if b.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.Mongo.Disconnect(ctx)
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
}
