package binder

import (
	"context"
	"fmt"
	"sync"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/editable"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/metrics"
)

type entry struct {
	item    content.CollectionItem
	editors map[string]*editable.Field
	slide   int
}

// CollectionBinder binds an ordered collection (skills, experience,
// projects) and runs the item lifecycle: add with defaults, per-field
// saves, confirmed deletes and the project gallery.
type CollectionBinder struct {
	section *content.Section
	query   store.Query
	st      store.Store
	opts    Options

	mu       sync.Mutex
	loaded   bool
	order    []string
	entries  map[string]*entry
	editMode bool
	unsub    store.Unsubscribe
	closed   bool

	changes listeners
}

func NewCollectionBinder(st store.Store, section *content.Section, opts Options) *CollectionBinder {
	return &CollectionBinder{
		section: section,
		query:   store.Query{Collection: section.Collection, Desc: section.OrderDesc},
		st:      st,
		opts:    opts.withDefaults(),
		entries: make(map[string]*entry),
	}
}

func (b *CollectionBinder) Section() *content.Section { return b.section }

func (b *CollectionBinder) Activate(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.unsub != nil {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	unsub, err := b.st.SubscribeQuery(ctx, b.query, b.apply)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.query.Collection, err)
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		unsub()
		return ErrClosed
	}
	b.unsub = unsub
	b.mu.Unlock()
	return nil
}

func (b *CollectionBinder) Close() {
	b.mu.Lock()
	b.closed = true
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// apply takes the pushed list as the new state, in query order. Editors of
// surviving items are resynced so a focused edit survives the push.
func (b *CollectionBinder) apply(list []store.Snapshot) {
	b.mu.Lock()
	order := make([]string, 0, len(list))
	entries := make(map[string]*entry, len(list))
	for _, s := range list {
		id := s.Path.ID
		e, ok := b.entries[id]
		if !ok {
			e = &entry{editors: make(map[string]*editable.Field)}
		}
		e.item = content.CollectionItem{ID: id, CreatedAt: s.CreatedAt, Fields: s.Fields.Clone()}
		for name, ed := range e.editors {
			ed.Resync(e.item.Fields.Get(name))
		}
		e.slide = content.NewCursor(e.slide, len(content.Slides(e.item.Fields))).Index
		order = append(order, id)
		entries[id] = e
	}
	b.order = order
	b.entries = entries
	b.loaded = true
	b.mu.Unlock()
	b.changes.notify()
}

// Loaded is false until the first push; renderers show a placeholder.
func (b *CollectionBinder) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Items returns copies of the items in query order.
func (b *CollectionBinder) Items() []content.CollectionItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]content.CollectionItem, 0, len(b.order))
	for _, id := range b.order {
		it := b.entries[id].item
		it.Fields = it.Fields.Clone()
		out = append(out, it)
	}
	return out
}

func (b *CollectionBinder) Item(id string) (content.CollectionItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return content.CollectionItem{}, false
	}
	it := e.item
	it.Fields = it.Fields.Clone()
	return it, true
}

// Add creates an item with the section defaults. The item shows up with
// the next push; nothing is inserted locally. Adds are not retried since a
// retry could create a duplicate.
func (b *CollectionBinder) Add(ctx context.Context) (string, error) {
	if !b.opts.Guard.EditMode() {
		return "", ErrReadOnly
	}
	id, err := b.st.Add(ctx, b.section.Collection, b.section.Defaults.Clone())
	if err != nil {
		logger.Errorf("add to %s failed: %v", b.section.Collection, err)
		metrics.ContentWrites.WithLabelValues(b.section.Collection, "failed").Inc()
		metrics.ContentWriteFailures.WithLabelValues(b.section.Collection).Inc()
		return "", err
	}
	metrics.ContentWrites.WithLabelValues(b.section.Collection, "ok").Inc()
	return id, nil
}

// Save updates one field of one item, optimistically and then remotely.
func (b *CollectionBinder) Save(ctx context.Context, id, field string, v content.Value) <-chan error {
	if !b.opts.Guard.EditMode() {
		return b.reject(id, field, ErrReadOnly)
	}
	u, err := b.section.Schema.Validate(content.Update{Field: field, Value: v}, b.opts.Media)
	if err != nil {
		return b.reject(id, field, err)
	}
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok {
		b.mu.Unlock()
		return failed(fmt.Errorf("%w: %s/%s", store.ErrNotFound, b.section.Collection, id))
	}
	e.item.Fields = e.item.Fields.Merge(content.Fields{u.Field: u.Value})
	if ed, ok := e.editors[u.Field]; ok {
		ed.Resync(u.Value.Str())
	}
	e.slide = content.NewCursor(e.slide, len(content.Slides(e.item.Fields))).Index
	b.mu.Unlock()
	b.changes.notify()

	p := store.Doc(b.section.Collection, id)
	return b.opts.Writer.Go(ctx, p.Collection, p.String()+"."+u.Field, func(ctx context.Context) error {
		return b.st.Update(ctx, p, content.Fields{u.Field: u.Value})
	})
}

// reject reports a refused save and puts the item's editor back on the
// local value.
func (b *CollectionBinder) reject(id, field string, err error) <-chan error {
	logger.Warnf("save %s/%s.%s rejected: %v", b.section.Collection, id, field, err)
	metrics.ContentRejections.WithLabelValues(b.section.Collection).Inc()
	b.mu.Lock()
	if e, ok := b.entries[id]; ok {
		if ed, ok := e.editors[field]; ok {
			ed.Resync(e.item.Fields.Get(field))
		}
	}
	b.mu.Unlock()
	return failed(err)
}

// Delete removes an item after c confirms the section's prompt. Nothing is
// sent to the store without a yes. The item disappears with the next push.
func (b *CollectionBinder) Delete(ctx context.Context, id string, c Confirmer) error {
	if !b.opts.Guard.EditMode() {
		return ErrReadOnly
	}
	b.mu.Lock()
	_, ok := b.entries[id]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s/%s", store.ErrNotFound, b.section.Collection, id)
	}
	if c == nil || !c.Confirm(b.section.DeletePrompt) {
		return ErrNotConfirmed
	}
	if err := b.st.Delete(ctx, store.Doc(b.section.Collection, id)); err != nil {
		logger.Errorf("delete %s/%s failed: %v", b.section.Collection, id, err)
		return err
	}
	return nil
}

// Editor returns the editable field for one item's field.
func (b *CollectionBinder) Editor(id, field string) (*editable.Field, error) {
	sp, ok := b.section.Schema.Spec(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", content.ErrUnknownField, b.section.Name, field)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, b.section.Collection, id)
	}
	return b.editorLocked(e, id, sp), nil
}

func (b *CollectionBinder) editorLocked(e *entry, id string, sp content.FieldSpec) *editable.Field {
	ed, ok := e.editors[sp.Name]
	if !ok {
		name := sp.Name
		ed = editable.New(name, e.item.Fields.Get(name), sp.Kind == content.KindMultiline, func(v string) <-chan error {
			return b.Save(context.Background(), id, name, content.String(v))
		})
		ed.SetEditMode(b.editMode)
		e.editors[name] = ed
	}
	return ed
}

// SetEditMode switches every editor of every item.
func (b *CollectionBinder) SetEditMode(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.editMode = on
	for _, e := range b.entries {
		for _, ed := range e.editors {
			ed.SetEditMode(on)
		}
	}
}

// Views renders one item's text fields in schema order. Gallery and fit are
// not text and are left to the renderer.
func (b *CollectionBinder) Views(id string, editMode bool) []editable.View {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return nil
	}
	out := make([]editable.View, 0, len(b.section.Schema.Fields))
	for _, sp := range b.section.Schema.Fields {
		if sp.Kind == content.KindMediaList || sp.Kind == content.KindFit {
			continue
		}
		out = append(out, b.editorLocked(e, id, sp).RenderAs(editMode))
	}
	return out
}

func (b *CollectionBinder) OnChange(fn func()) func() { return b.changes.add(fn) }
