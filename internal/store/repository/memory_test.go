package repository

import (
	"context"
	"testing"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	id, err := r.Insert(ctx, "skills_list", 10, content.Fields{"title": content.String("Go")})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.Get(ctx, store.Doc("skills_list", id))
	require.NoError(t, err)
	require.Equal(t, "Go", got.Fields.Get("title"))
	require.Equal(t, int64(10), got.CreatedAt)

	require.NoError(t, r.Update(ctx, store.Doc("skills_list", id), content.Fields{"desc": content.String("fast")}))
	got, err = r.Get(ctx, store.Doc("skills_list", id))
	require.NoError(t, err)
	require.Equal(t, "Go", got.Fields.Get("title"))
	require.Equal(t, "fast", got.Fields.Get("desc"))

	require.ErrorIs(t, r.Update(ctx, store.Doc("skills_list", "missing"), content.Fields{}), store.ErrNotFound)

	require.NoError(t, r.Delete(ctx, store.Doc("skills_list", id)))
	_, err = r.Get(ctx, store.Doc("skills_list", id))
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, store.Doc("skills_list", id)), store.ErrNotFound)
}

func TestMemoryRepoMergeIsPartialAndIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	p := store.Doc("content", "hero")

	require.NoError(t, r.Set(ctx, p, content.Fields{"title": content.String("A"), "subtitle": content.String("B")}, true))
	patch := content.Fields{"title": content.String("X")}
	require.NoError(t, r.Set(ctx, p, patch, true))
	once, err := r.Get(ctx, p)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, p, patch, true))
	twice, err := r.Get(ctx, p)
	require.NoError(t, err)

	require.Equal(t, once.Fields, twice.Fields)
	require.Equal(t, "X", twice.Fields.Get("title"))
	require.Equal(t, "B", twice.Fields.Get("subtitle"))

	// replace drops fields not given
	require.NoError(t, r.Set(ctx, p, content.Fields{"title": content.String("Y")}, false))
	got, err := r.Get(ctx, p)
	require.NoError(t, err)
	require.Equal(t, []string{"title"}, got.Fields.Names())
}

func TestMemoryRepoListOrder(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	for i, title := range []string{"old", "mid", "new"} {
		_, err := r.Insert(ctx, "experience", int64(i+1), content.Fields{"title": content.String(title)})
		require.NoError(t, err)
	}

	asc, err := r.List(ctx, store.Query{Collection: "experience"})
	require.NoError(t, err)
	require.Equal(t, "old", asc[0].Fields.Get("title"))
	require.Equal(t, "new", asc[2].Fields.Get("title"))

	desc, err := r.List(ctx, store.Query{Collection: "experience", Desc: true})
	require.NoError(t, err)
	require.Equal(t, "new", desc[0].Fields.Get("title"))

	empty, err := r.List(ctx, store.Query{Collection: "nothing"})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	p := store.Doc("content", "contact")
	require.NoError(t, r.Set(ctx, p, content.Fields{"email": content.String("a@b.c")}, true))

	got, err := r.Get(ctx, p)
	require.NoError(t, err)
	got.Fields["email"] = content.String("mutated")

	again, err := r.Get(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", again.Fields.Get("email"))
}

func TestBSONRoundTrip(t *testing.T) {
	doc := toBSON("p1", 42, content.Fields{
		"title": content.String("Folio"),
		"tags":  content.List("Go", "gin"),
	})
	require.Equal(t, "p1", doc["_id"])
	require.Equal(t, int64(42), doc["createdAt"])

	// what the driver hands back when decoding into bson.M
	raw := bson.M{
		"_id":       "p1",
		"createdAt": int64(42),
		"title":     "Folio",
		"tags":      primitive.A{"Go", "gin"},
		"views":     int32(7),
	}
	s := fromBSON("projects", raw)
	require.Equal(t, store.Doc("projects", "p1"), s.Path)
	require.True(t, s.Exists)
	require.Equal(t, int64(42), s.CreatedAt)
	require.Equal(t, []string{"Go", "gin"}, s.Fields["tags"].Items())
	require.Equal(t, "Folio", s.Fields.Get("title"))
	_, ok := s.Fields["views"]
	require.False(t, ok)
}
