package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/folio-cms/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users. Lookups return
// (nil, nil) when nothing matches.
type UserRepository interface {
	UpsertBySub(ctx context.Context, u *models.User) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u.UpdatedAt = now

	set := bson.M{
		"email":     normalizeEmail(u.Email),
		"name":      u.Name,
		"updatedAt": u.UpdatedAt,
	}
	if u.PasswordHash != "" {
		set["passwordHash"] = u.PasswordHash
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"sub": u.Sub}, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return u, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"sub": sub})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// MemoryUserRepository keeps users in process; used without MongoDB.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	cur, ok := r.bySub[u.Sub]
	if !ok {
		cur = &models.User{ID: u.Sub, Sub: u.Sub, CreatedAt: now}
		r.bySub[u.Sub] = cur
	}
	cur.Email = normalizeEmail(u.Email)
	cur.Name = u.Name
	if u.PasswordHash != "" {
		cur.PasswordHash = u.PasswordHash
	}
	cur.UpdatedAt = now
	cp := *cur
	return &cp, nil
}

func (r *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.bySub[sub]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.bySub {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
