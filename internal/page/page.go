// Package page composes the section binders into the portfolio page.
package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/pkg/logger"
)

// Page owns one binder per section. Sections are independent siblings:
// each has its own subscription and its own state.
type Page struct {
	Hero       *binder.DocumentBinder
	Header     *binder.DocumentBinder
	Contact    *binder.DocumentBinder
	Skills     *binder.CollectionBinder
	Experience *binder.CollectionBinder
	Projects   *binder.CollectionBinder
}

func New(st store.Store, opts binder.Options) *Page {
	return &Page{
		Hero:       binder.NewDocumentBinder(st, content.Hero, opts),
		Header:     binder.NewDocumentBinder(st, content.ProjectsHeader, opts),
		Contact:    binder.NewDocumentBinder(st, content.Contact, opts),
		Skills:     binder.NewCollectionBinder(st, content.Skills, opts),
		Experience: binder.NewCollectionBinder(st, content.Experience, opts),
		Projects:   binder.NewCollectionBinder(st, content.Projects, opts),
	}
}

// Documents returns the single-document binders in display order.
func (p *Page) Documents() []*binder.DocumentBinder {
	return []*binder.DocumentBinder{p.Hero, p.Header, p.Contact}
}

// Collections returns the collection binders in display order.
func (p *Page) Collections() []*binder.CollectionBinder {
	return []*binder.CollectionBinder{p.Skills, p.Experience, p.Projects}
}

// Document finds a document binder by area name.
func (p *Page) Document(area string) (*binder.DocumentBinder, bool) {
	for _, b := range p.Documents() {
		if b.Section().Name == area {
			return b, true
		}
	}
	return nil, false
}

// Collection finds a collection binder by section or collection name.
func (p *Page) Collection(name string) (*binder.CollectionBinder, bool) {
	for _, b := range p.Collections() {
		if s := b.Section(); s.Name == name || s.Collection == name {
			return b, true
		}
	}
	return nil, false
}

// Activate subscribes every section. On failure the sections already
// active are closed again.
func (p *Page) Activate(ctx context.Context) error {
	var active []interface{ Close() }
	fail := func(name string, err error) error {
		for _, b := range active {
			b.Close()
		}
		return fmt.Errorf("activate %s: %w", name, err)
	}
	for _, b := range p.Documents() {
		if err := b.Activate(ctx); err != nil {
			return fail(b.Section().Name, err)
		}
		active = append(active, b)
	}
	for _, b := range p.Collections() {
		if err := b.Activate(ctx); err != nil {
			return fail(b.Section().Collection, err)
		}
		active = append(active, b)
	}
	logger.Infof("page: %d sections active", len(active))
	return nil
}

// Close tears down every section subscription.
func (p *Page) Close() {
	for _, b := range p.Documents() {
		b.Close()
	}
	for _, b := range p.Collections() {
		b.Close()
	}
}

// SetEditMode switches every section's editors.
func (p *Page) SetEditMode(on bool) {
	for _, b := range p.Documents() {
		b.SetEditMode(on)
	}
	for _, b := range p.Collections() {
		b.SetEditMode(on)
	}
}

// OnChange registers fn with every section.
func (p *Page) OnChange(fn func()) func() {
	var offs []func()
	for _, b := range p.Documents() {
		offs = append(offs, b.OnChange(fn))
	}
	for _, b := range p.Collections() {
		offs = append(offs, b.OnChange(fn))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// ErrNoProject is returned by RenderProject for unknown ids.
var ErrNoProject = errors.New("project not found")

// Seed writes the defaults of every document section that is not stored
// yet and returns the areas it created. Existing documents are left alone.
func Seed(ctx context.Context, st store.Store) ([]string, error) {
	var created []string
	for _, s := range content.DocumentSections {
		p := store.Doc(s.Collection, s.Name)
		cur, err := st.ReadOnce(ctx, p)
		if err != nil {
			return created, fmt.Errorf("read %s: %w", p, err)
		}
		if cur != nil && cur.Exists {
			continue
		}
		if err := st.Write(ctx, p, s.Defaults.Clone(), false); err != nil {
			return created, fmt.Errorf("seed %s: %w", p, err)
		}
		created = append(created, s.Name)
	}
	return created, nil
}
