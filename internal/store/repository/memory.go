package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/store"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type record struct {
	createdAt int64
	fields    content.Fields
}

// MemoryRepo is an in-process repository used by tests and as the dev
// fallback when no MongoDB is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]map[string]*record
}

var _ store.Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]map[string]*record)}
}

func (m *MemoryRepo) Get(ctx context.Context, p store.Path) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.data[p.Collection][p.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	s := r.snapshot(p)
	return &s, nil
}

func (m *MemoryRepo) Set(ctx context.Context, p store.Path, fields content.Fields, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.collection(p.Collection)
	r, ok := col[p.ID]
	switch {
	case !ok:
		col[p.ID] = &record{fields: fields.Clone()}
	case merge:
		r.fields = r.fields.Merge(fields)
	default:
		r.fields = fields.Clone()
	}
	return nil
}

func (m *MemoryRepo) Update(ctx context.Context, p store.Path, fields content.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[p.Collection][p.ID]
	if !ok {
		return store.ErrNotFound
	}
	r.fields = r.fields.Merge(fields)
	return nil
}

func (m *MemoryRepo) Insert(ctx context.Context, collection string, createdAt int64, fields content.Fields) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = &record{createdAt: createdAt, fields: fields.Clone()}
	return id, nil
}

func (m *MemoryRepo) List(ctx context.Context, q store.Query) ([]store.Snapshot, error) {
	m.mu.RLock()
	out := make([]store.Snapshot, 0, len(m.data[q.Collection]))
	for id, r := range m.data[q.Collection] {
		out = append(out, r.snapshot(store.Doc(q.Collection, id)))
	}
	m.mu.RUnlock()
	sortSnapshots(out, q.Desc)
	return out, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, p store.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p.Collection][p.ID]; !ok {
		return store.ErrNotFound
	}
	delete(m.data[p.Collection], p.ID)
	return nil
}

func (m *MemoryRepo) collection(name string) map[string]*record {
	col, ok := m.data[name]
	if !ok {
		col = make(map[string]*record)
		m.data[name] = col
	}
	return col
}

func (r *record) snapshot(p store.Path) store.Snapshot {
	return store.Snapshot{Path: p, Exists: true, CreatedAt: r.createdAt, Fields: r.fields.Clone()}
}

// sortSnapshots orders by createdAt, ties broken by id so the order is
// stable across reads.
func sortSnapshots(s []store.Snapshot, desc bool) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].CreatedAt != s[j].CreatedAt {
			if desc {
				return s[i].CreatedAt > s[j].CreatedAt
			}
			return s[i].CreatedAt < s[j].CreatedAt
		}
		return s[i].Path.ID < s[j].Path.ID
	})
}
