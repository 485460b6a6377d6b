package binder

import (
	"context"
	"fmt"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/store"
)

func (b *CollectionBinder) hasGallery() error {
	if _, ok := b.section.Schema.Spec(content.GalleryField); !ok {
		return fmt.Errorf("%w: %s has no gallery", content.ErrUnknownField, b.section.Name)
	}
	return nil
}

func (b *CollectionBinder) fieldsOf(id string) (content.Fields, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, b.section.Collection, id)
	}
	return e.item.Fields.Clone(), nil
}

// AddSlide appends an empty slot to the item's gallery and returns its index.
func (b *CollectionBinder) AddSlide(ctx context.Context, id string) (int, <-chan error) {
	if err := b.hasGallery(); err != nil {
		return -1, failed(err)
	}
	f, err := b.fieldsOf(id)
	if err != nil {
		return -1, failed(err)
	}
	g, idx := content.AddSlide(f)
	return idx, b.Save(ctx, id, content.GalleryField, content.List(g...))
}

func (b *CollectionBinder) UpdateSlide(ctx context.Context, id string, index int, url string) <-chan error {
	if err := b.hasGallery(); err != nil {
		return failed(err)
	}
	f, err := b.fieldsOf(id)
	if err != nil {
		return failed(err)
	}
	g, err := content.UpdateSlide(f, index, url)
	if err != nil {
		return failed(err)
	}
	return b.Save(ctx, id, content.GalleryField, content.List(g...))
}

// DeleteSlide removes a gallery slot after confirmation.
func (b *CollectionBinder) DeleteSlide(ctx context.Context, id string, index int, c Confirmer) <-chan error {
	if !b.opts.Guard.EditMode() {
		return failed(ErrReadOnly)
	}
	if err := b.hasGallery(); err != nil {
		return failed(err)
	}
	f, err := b.fieldsOf(id)
	if err != nil {
		return failed(err)
	}
	g, err := content.DeleteSlide(f, index)
	if err != nil {
		return failed(err)
	}
	if c == nil || !c.Confirm(content.DeleteSlidePrompt) {
		return failed(ErrNotConfirmed)
	}
	return b.Save(ctx, id, content.GalleryField, content.List(g...))
}

func (b *CollectionBinder) ToggleFit(ctx context.Context, id string) <-chan error {
	if _, ok := b.section.Schema.Spec(content.FitField); !ok {
		return failed(fmt.Errorf("%w: %s has no image fit", content.ErrUnknownField, b.section.Name))
	}
	f, err := b.fieldsOf(id)
	if err != nil {
		return failed(err)
	}
	return b.Save(ctx, id, content.FitField, content.String(content.ToggleFit(f)))
}

// Slide returns the item's current-slide cursor.
func (b *CollectionBinder) Slide(id string) (content.Cursor, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return content.Cursor{}, false
	}
	return content.NewCursor(e.slide, len(content.Slides(e.item.Fields))), true
}

// NextSlide and PrevSlide move the cursor with wrap-around. Viewing needs
// no edit mode.
func (b *CollectionBinder) NextSlide(id string) (content.Cursor, bool) {
	return b.moveSlide(id, content.Cursor.Next)
}

func (b *CollectionBinder) PrevSlide(id string) (content.Cursor, bool) {
	return b.moveSlide(id, content.Cursor.Prev)
}

func (b *CollectionBinder) moveSlide(id string, step func(content.Cursor) content.Cursor) (content.Cursor, bool) {
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok {
		b.mu.Unlock()
		return content.Cursor{}, false
	}
	c := step(content.NewCursor(e.slide, len(content.Slides(e.item.Fields))))
	e.slide = c.Index
	b.mu.Unlock()
	b.changes.notify()
	return c, true
}
