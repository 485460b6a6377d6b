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

// DocumentBinder binds one content document ("hero", "contact", ...) to its
// editable fields.
type DocumentBinder struct {
	section *content.Section
	path    store.Path
	st      store.Store
	opts    Options

	mu      sync.Mutex
	fields  content.Fields
	loaded  bool
	editors map[string]*editable.Field
	unsub   store.Unsubscribe
	closed  bool

	changes listeners
}

func NewDocumentBinder(st store.Store, section *content.Section, opts Options) *DocumentBinder {
	b := &DocumentBinder{
		section: section,
		path:    store.Doc(section.Collection, section.Name),
		st:      st,
		opts:    opts.withDefaults(),
		fields:  section.Defaults.Clone(),
		editors: make(map[string]*editable.Field),
	}
	for _, sp := range section.Schema.Fields {
		name := sp.Name
		b.editors[name] = editable.New(name, b.fields.Get(name), sp.Kind == content.KindMultiline, func(v string) <-chan error {
			return b.HandleSave(context.Background(), name, content.String(v))
		})
	}
	return b
}

func (b *DocumentBinder) Section() *content.Section { return b.section }
func (b *DocumentBinder) Path() store.Path          { return b.path }

// Activate opens the live subscription. The subscription ends on Close or
// when ctx is done.
func (b *DocumentBinder) Activate(ctx context.Context) error {
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

	unsub, err := b.st.Subscribe(ctx, b.path, b.apply)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.path, err)
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

// Close releases the subscription. Safe to call more than once.
func (b *DocumentBinder) Close() {
	b.mu.Lock()
	b.closed = true
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// apply replaces the local copy wholesale. A missing document keeps the
// defaults.
func (b *DocumentBinder) apply(s store.Snapshot) {
	b.mu.Lock()
	b.loaded = true
	if s.Exists {
		b.fields = s.Fields.Clone()
		for name, ed := range b.editors {
			ed.Resync(b.fields.Get(name))
		}
	}
	b.mu.Unlock()
	b.changes.notify()
}

// Loaded reports whether the first push has arrived.
func (b *DocumentBinder) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Snapshot returns a copy of the local fields (defaults before the first push).
func (b *DocumentBinder) Snapshot() content.Fields {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fields.Clone()
}

// HandleSave validates the update, applies it locally at once and writes
// the single field to the store in the background. A failed write is not
// rolled back; the next push corrects the local copy.
func (b *DocumentBinder) HandleSave(ctx context.Context, field string, v content.Value) <-chan error {
	if !b.opts.Guard.EditMode() {
		return b.reject(field, ErrReadOnly)
	}
	u, err := b.section.Schema.Validate(content.Update{Field: field, Value: v}, b.opts.Media)
	if err != nil {
		return b.reject(field, err)
	}
	b.mu.Lock()
	b.fields = b.fields.Merge(content.Fields{u.Field: u.Value})
	if ed, ok := b.editors[u.Field]; ok {
		ed.Resync(u.Value.Str())
	}
	b.mu.Unlock()
	b.changes.notify()

	logger.Debugf("save %s.%s", b.path, u.Field)
	return b.opts.Writer.Go(ctx, b.path.Collection, b.path.String()+"."+u.Field, func(ctx context.Context) error {
		return b.st.Write(ctx, b.path, content.Fields{u.Field: u.Value}, true)
	})
}

// reject reports a refused save and puts the field's editor back on the
// local value.
func (b *DocumentBinder) reject(field string, err error) <-chan error {
	logger.Warnf("save %s.%s rejected: %v", b.path, field, err)
	metrics.ContentRejections.WithLabelValues(b.path.Collection).Inc()
	b.mu.Lock()
	if ed, ok := b.editors[field]; ok {
		ed.Resync(b.fields.Get(field))
	}
	b.mu.Unlock()
	return failed(err)
}

// Editor returns the editable field bound to name.
func (b *DocumentBinder) Editor(name string) (*editable.Field, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ed, ok := b.editors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", content.ErrUnknownField, b.section.Name, name)
	}
	return ed, nil
}

// SetEditMode switches every editor of the section.
func (b *DocumentBinder) SetEditMode(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ed := range b.editors {
		ed.SetEditMode(on)
	}
}

// Views renders one view per schema field, in schema order.
func (b *DocumentBinder) Views(editMode bool) []editable.View {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]editable.View, 0, len(b.section.Schema.Fields))
	for _, sp := range b.section.Schema.Fields {
		out = append(out, b.editors[sp.Name].RenderAs(editMode))
	}
	return out
}

// OnChange registers fn to run after every local or pushed change.
func (b *DocumentBinder) OnChange(fn func()) func() { return b.changes.add(fn) }
