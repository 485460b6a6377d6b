// Package identity holds the single source of truth for who is signed in,
// and therefore whether edit mode is on.
package identity

import (
	"context"
	"sync"
)

// Identity is a signed-in owner.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// Source reports identity changes. Watch must call fn once with the
// current state as soon as it is known.
type Source interface {
	Watch(fn func(*Identity)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Gate observes a Source. It is loading until the first callback; loading
// and signed-out are distinct states.
type Gate struct {
	src   Source
	unsub func()

	mu      sync.RWMutex
	loading bool
	current *Identity
	settled chan struct{}
	once    sync.Once
	closed  bool

	lmu  sync.Mutex
	next int
	fns  map[int]func(*Identity)
}

func NewGate(src Source) *Gate {
	g := &Gate{src: src, loading: true, settled: make(chan struct{}), fns: make(map[int]func(*Identity))}
	unsub := src.Watch(g.update)
	g.mu.Lock()
	g.unsub = unsub
	g.mu.Unlock()
	return g
}

func (g *Gate) update(id *Identity) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.loading = false
	if id != nil {
		cp := *id
		id = &cp
	}
	g.current = id
	g.mu.Unlock()
	g.once.Do(func() { close(g.settled) })

	g.lmu.Lock()
	fns := make([]func(*Identity), 0, len(g.fns))
	for _, fn := range g.fns {
		fns = append(fns, fn)
	}
	g.lmu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

// Current returns a copy of the signed-in identity, nil when absent or
// still loading.
func (g *Gate) Current() *Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return nil
	}
	cp := *g.current
	return &cp
}

func (g *Gate) Loading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loading
}

// EditMode is true only once settled with an identity present.
func (g *Gate) EditMode() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.loading && g.current != nil
}

// Wait blocks until the first identity check resolved.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) SignOut(ctx context.Context) error {
	return g.src.SignOut(ctx)
}

// OnChange registers fn for every later identity change.
func (g *Gate) OnChange(fn func(*Identity)) func() {
	g.lmu.Lock()
	defer g.lmu.Unlock()
	id := g.next
	g.next++
	g.fns[id] = fn
	return func() {
		g.lmu.Lock()
		delete(g.fns, id)
		g.lmu.Unlock()
	}
}

// Close stops watching the source. Safe to call more than once.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsub := g.unsub
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
