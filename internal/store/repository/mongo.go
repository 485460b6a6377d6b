package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/pkg/logger"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo maps each store collection onto a MongoDB collection of the
// same name. Documents are flat: _id (string), createdAt (unix ms) and one
// key per content field.
type MongoRepo struct {
	db *mongo.Database
}

var _ store.Repository = (*MongoRepo)(nil)

func NewMongoRepo(ctx context.Context, db *mongo.Database, collections ...string) *MongoRepo {
	// ordered queries sort on createdAt
	for _, c := range collections {
		idx := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}
		if _, err := db.Collection(c).Indexes().CreateOne(ctx, idx); err != nil {
			logger.Warnf("mongo: createdAt index on %s: %v", c, err)
		}
	}
	return &MongoRepo{db: db}
}

func (m *MongoRepo) Get(ctx context.Context, p store.Path) (*store.Snapshot, error) {
	var raw bson.M
	err := m.db.Collection(p.Collection).FindOne(ctx, bson.M{"_id": p.ID}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	s := fromBSON(p.Collection, raw)
	return &s, nil
}

func (m *MongoRepo) Set(ctx context.Context, p store.Path, fields content.Fields, merge bool) error {
	col := m.db.Collection(p.Collection)
	if merge {
		if len(fields) == 0 {
			// $set may not be empty; just make sure the document exists
			_, err := col.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$setOnInsert": bson.M{"createdAt": int64(0)}}, options.Update().SetUpsert(true))
			return err
		}
		_, err := col.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": fields.Raw()}, options.Update().SetUpsert(true))
		return err
	}

	// a replace keeps the store-owned createdAt
	var created int64
	var prev bson.M
	err := col.FindOne(ctx, bson.M{"_id": p.ID}, options.FindOne().SetProjection(bson.M{"createdAt": 1})).Decode(&prev)
	switch {
	case err == nil:
		created = toInt64(prev["createdAt"])
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}
	doc := toBSON(p.ID, created, fields)
	_, err = col.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoRepo) Update(ctx context.Context, p store.Path, fields content.Fields) error {
	col := m.db.Collection(p.Collection)
	if len(fields) == 0 {
		n, err := col.CountDocuments(ctx, bson.M{"_id": p.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": fields.Raw()})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Insert(ctx context.Context, collection string, createdAt int64, fields content.Fields) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, toBSON(id, createdAt, fields)); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

func (m *MongoRepo) List(ctx context.Context, q store.Query) ([]store.Snapshot, error) {
	dir := 1
	if q.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: 1}})
	cur, err := m.db.Collection(q.Collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []store.Snapshot{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, fromBSON(q.Collection, raw))
	}
	return out, cur.Err()
}

func (m *MongoRepo) Delete(ctx context.Context, p store.Path) error {
	res, err := m.db.Collection(p.Collection).DeleteOne(ctx, bson.M{"_id": p.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toBSON(id string, createdAt int64, fields content.Fields) bson.M {
	doc := bson.M{"_id": id, content.CreatedAtField: createdAt}
	for k, v := range fields.Raw() {
		doc[k] = v
	}
	return doc
}

// fromBSON drops keys that do not hold a string or string list; such keys
// were not written through a schema.
func fromBSON(collection string, raw bson.M) store.Snapshot {
	id, _ := raw["_id"].(string)
	s := store.Snapshot{
		Path:      store.Doc(collection, id),
		Exists:    true,
		CreatedAt: toInt64(raw[content.CreatedAtField]),
		Fields:    content.Fields{},
	}
	for k, v := range raw {
		if k == "_id" || k == content.CreatedAtField {
			continue
		}
		if a, ok := v.(primitive.A); ok {
			v = []interface{}(a)
		}
		if val, ok := content.ValueOf(v); ok {
			s.Fields[k] = val
		}
	}
	return s
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case primitive.DateTime:
		return int64(n)
	}
	return 0
}
