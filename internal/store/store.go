// Package store is the remote document store boundary: keyed documents
// grouped into collections, merge writes, and live subscriptions.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/folio-cms/folio/internal/content"
)

var ErrNotFound = errors.New("document not found")

// Path addresses one document.
type Path struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func Doc(collection, id string) Path { return Path{Collection: collection, ID: id} }

func (p Path) String() string { return p.Collection + "/" + p.ID }

// ParsePath parses "collection/id".
func ParsePath(s string) (Path, error) {
	col, id, ok := strings.Cut(s, "/")
	if !ok || col == "" || id == "" || strings.Contains(id, "/") {
		return Path{}, fmt.Errorf("invalid document path %q", s)
	}
	return Path{Collection: col, ID: id}, nil
}

// Snapshot is the state of one document at some point in time. Fields may
// be shared between subscribers and must be treated as read-only.
type Snapshot struct {
	Path      Path
	Exists    bool
	CreatedAt int64
	Fields    content.Fields
}

// Query selects every document of a collection ordered by createdAt.
type Query struct {
	Collection string
	Desc       bool
}

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Store is what binders consume. Subscriptions push the current state
// immediately, then every later change; delivery is latest-state only.
type Store interface {
	ReadOnce(ctx context.Context, p Path) (*Snapshot, error)
	Subscribe(ctx context.Context, p Path, fn func(Snapshot)) (Unsubscribe, error)
	SubscribeQuery(ctx context.Context, q Query, fn func([]Snapshot)) (Unsubscribe, error)
	// Write upserts p. With merge only the given fields change.
	Write(ctx context.Context, p Path, fields content.Fields, merge bool) error
	// Update merges into an existing document, ErrNotFound otherwise.
	Update(ctx context.Context, p Path, fields content.Fields) error
	Add(ctx context.Context, collection string, fields content.Fields) (string, error)
	Delete(ctx context.Context, p Path) error
}

// Repository is the persistence behind a live store.
type Repository interface {
	Get(ctx context.Context, p Path) (*Snapshot, error)
	Set(ctx context.Context, p Path, fields content.Fields, merge bool) error
	Update(ctx context.Context, p Path, fields content.Fields) error
	Insert(ctx context.Context, collection string, createdAt int64, fields content.Fields) (string, error)
	List(ctx context.Context, q Query) ([]Snapshot, error)
	Delete(ctx context.Context, p Path) error
}
