package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides session persistence operations. GetByRefresh and
// TakeByRefresh return (nil, nil) for unknown tokens.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByRefresh(ctx context.Context, refresh string) (*Session, error)
	// TakeByRefresh removes the session and returns it in one step, so a
	// refresh token is redeemed at most once.
	TakeByRefresh(ctx context.Context, refresh string) (*Session, error)
	DeleteByRefresh(ctx context.Context, refresh string) error
}

// MongoRepository implements Repository using a Mongo collection. A TTL
// index on expiresAt lets MongoDB drop stale sessions.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) *MongoRepository {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
	_, _ = col.Indexes().CreateMany(ctx, idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *MongoRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	var s Session
	if err := r.col.FindOne(ctx, bson.M{"refreshToken": refresh}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) TakeByRefresh(ctx context.Context, refresh string) (*Session, error) {
	var s Session
	if err := r.col.FindOneAndDelete(ctx, bson.M{"refreshToken": refresh}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"refreshToken": refresh})
	return err
}

// MemoryRepository keeps sessions in process for single-node setups.
type MemoryRepository struct {
	mu    sync.Mutex
	store map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]Session)}
}

func (r *MemoryRepository) Create(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for k, v := range r.store {
		if v.Expired(now) {
			delete(r.store, k)
		}
	}
	r.store[s.RefreshToken] = *s
	return nil
}

func (r *MemoryRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.store[refresh]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) TakeByRefresh(ctx context.Context, refresh string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.store[refresh]
	if !ok {
		return nil, nil
	}
	delete(r.store, refresh)
	return &s, nil
}

func (r *MemoryRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, refresh)
	return nil
}
