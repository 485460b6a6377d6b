// Package binder ties content sections to the document store: a live local
// copy fed by subscriptions, optimistic field saves and the collection item
// lifecycle.
package binder

import (
	"errors"
	"sync"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/retry"
)

var (
	ErrNotConfirmed = errors.New("action not confirmed")
	ErrReadOnly     = errors.New("edit mode is off")
	ErrClosed       = errors.New("binder closed")
)

// Confirmer answers a blocking yes/no prompt before destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed answers yes without asking; for callers that collected the
// confirmation elsewhere (an HTTP confirm flag).
var Confirmed Confirmer = ConfirmFunc(func(string) bool { return true })

// Guard reports whether owner-only actions are currently allowed.
type Guard interface {
	EditMode() bool
}

// Static is a fixed Guard.
type Static bool

func (s Static) EditMode() bool { return bool(s) }

type Options struct {
	Writer *Writer
	// Guard nil means the caller authorised the owner already.
	Guard Guard
	Media content.MediaPolicy
}

func (o Options) withDefaults() Options {
	if o.Writer == nil {
		o.Writer = NewWriter(retry.Default)
	}
	if o.Guard == nil {
		o.Guard = Static(true)
	}
	return o
}

// listeners is a small set of change callbacks.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (l *listeners) add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
