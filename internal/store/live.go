package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/metrics"
)

const refreshTimeout = 10 * time.Second

// mailbox hands values to fn on its own goroutine, keeping only the newest
// undelivered value. A slow consumer never blocks the producer.
type mailbox[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

func newMailbox[T any](fn func(T)) *mailbox[T] {
	m := &mailbox[T]{ch: make(chan T, 1), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-m.done:
				return
			case v := <-m.ch:
				// select picks at random when both are ready
				select {
				case <-m.done:
					return
				default:
				}
				fn(v)
			}
		}
	}()
	return m
}

func (m *mailbox[T]) offer(v T) {
	for {
		select {
		case <-m.done:
			return
		case m.ch <- v:
			return
		default:
		}
		// drop the stale pending value
		select {
		case <-m.ch:
		default:
		}
	}
}

func (m *mailbox[T]) stop() { m.once.Do(func() { close(m.done) }) }

type docSub struct {
	path Path
	box  *mailbox[Snapshot]
}

type querySub struct {
	query Query
	box   *mailbox[[]Snapshot]
}

// Live is a Store over a Repository. Every write is announced on the bus;
// every notice re-reads the affected path or query and pushes the result to
// its subscribers.
type Live struct {
	repo Repository
	bus  Bus
	now  func() time.Time

	// serializes read+offer so a stale read never lands after a newer one
	readMu sync.Mutex

	mu      sync.Mutex
	docs    map[Path]map[*docSub]struct{}
	queries map[string]map[*querySub]struct{}
	stopBus func()
}

var _ Store = (*Live)(nil)

func NewLive(ctx context.Context, repo Repository, bus Bus) (*Live, error) {
	if bus == nil {
		bus = NewLocalBus()
	}
	l := &Live{
		repo:    repo,
		bus:     bus,
		now:     time.Now,
		docs:    make(map[Path]map[*docSub]struct{}),
		queries: make(map[string]map[*querySub]struct{}),
	}
	stop, err := bus.Subscribe(ctx, l.onChange)
	if err != nil {
		return nil, err
	}
	l.stopBus = stop
	return l, nil
}

// Close stops listening for changes and ends every subscription.
func (l *Live) Close() {
	l.stopBus()
	l.mu.Lock()
	defer l.mu.Unlock()
	for p, subs := range l.docs {
		for s := range subs {
			s.box.stop()
			metrics.ActiveSubscriptions.Dec()
		}
		delete(l.docs, p)
	}
	for c, subs := range l.queries {
		for s := range subs {
			s.box.stop()
			metrics.ActiveSubscriptions.Dec()
		}
		delete(l.queries, c)
	}
}

func (l *Live) ReadOnce(ctx context.Context, p Path) (*Snapshot, error) {
	s, err := l.repo.Get(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return s, err
}

func (l *Live) Subscribe(ctx context.Context, p Path, fn func(Snapshot)) (Unsubscribe, error) {
	sub := &docSub{path: p, box: newMailbox(fn)}
	l.mu.Lock()
	if l.docs[p] == nil {
		l.docs[p] = make(map[*docSub]struct{})
	}
	l.docs[p][sub] = struct{}{}
	l.mu.Unlock()
	metrics.ActiveSubscriptions.Inc()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			l.mu.Lock()
			if _, ok := l.docs[p][sub]; ok {
				delete(l.docs[p], sub)
				if len(l.docs[p]) == 0 {
					delete(l.docs, p)
				}
				metrics.ActiveSubscriptions.Dec()
			}
			l.mu.Unlock()
			sub.box.stop()
		})
	}

	l.readMu.Lock()
	snap, err := l.read(ctx, p)
	if err == nil {
		sub.box.offer(snap)
	}
	l.readMu.Unlock()
	if err != nil {
		unsub()
		return nil, err
	}
	context.AfterFunc(ctx, unsub)
	return unsub, nil
}

func (l *Live) SubscribeQuery(ctx context.Context, q Query, fn func([]Snapshot)) (Unsubscribe, error) {
	sub := &querySub{query: q, box: newMailbox(fn)}
	l.mu.Lock()
	if l.queries[q.Collection] == nil {
		l.queries[q.Collection] = make(map[*querySub]struct{})
	}
	l.queries[q.Collection][sub] = struct{}{}
	l.mu.Unlock()
	metrics.ActiveSubscriptions.Inc()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			l.mu.Lock()
			if _, ok := l.queries[q.Collection][sub]; ok {
				delete(l.queries[q.Collection], sub)
				if len(l.queries[q.Collection]) == 0 {
					delete(l.queries, q.Collection)
				}
				metrics.ActiveSubscriptions.Dec()
			}
			l.mu.Unlock()
			sub.box.stop()
		})
	}

	l.readMu.Lock()
	items, err := l.repo.List(ctx, q)
	if err == nil {
		sub.box.offer(items)
	}
	l.readMu.Unlock()
	if err != nil {
		unsub()
		return nil, err
	}
	context.AfterFunc(ctx, unsub)
	return unsub, nil
}

func (l *Live) Write(ctx context.Context, p Path, fields content.Fields, merge bool) error {
	if err := l.repo.Set(ctx, p, fields, merge); err != nil {
		return err
	}
	l.announce(ctx, p)
	return nil
}

func (l *Live) Update(ctx context.Context, p Path, fields content.Fields) error {
	if err := l.repo.Update(ctx, p, fields); err != nil {
		return err
	}
	l.announce(ctx, p)
	return nil
}

// Add stores a new document; the store assigns id and createdAt.
func (l *Live) Add(ctx context.Context, collection string, fields content.Fields) (string, error) {
	id, err := l.repo.Insert(ctx, collection, l.now().UnixMilli(), fields)
	if err != nil {
		return "", err
	}
	l.announce(ctx, Doc(collection, id))
	return id, nil
}

func (l *Live) Delete(ctx context.Context, p Path) error {
	if err := l.repo.Delete(ctx, p); err != nil {
		return err
	}
	l.announce(ctx, p)
	return nil
}

// announce never fails the write: the data is stored, only live delivery
// is late until the next change.
func (l *Live) announce(ctx context.Context, p Path) {
	if err := l.bus.Publish(context.WithoutCancel(ctx), Change{Collection: p.Collection, ID: p.ID}); err != nil {
		logger.Warnf("store: publish change for %s: %v", p, err)
	}
}

func (l *Live) read(ctx context.Context, p Path) (Snapshot, error) {
	s, err := l.repo.Get(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{Path: p}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return *s, nil
}

func (l *Live) onChange(c Change) {
	p := Doc(c.Collection, c.ID)
	l.mu.Lock()
	var docs []*docSub
	for s := range l.docs[p] {
		docs = append(docs, s)
	}
	var queries []*querySub
	for s := range l.queries[c.Collection] {
		queries = append(queries, s)
	}
	l.mu.Unlock()
	if len(docs) == 0 && len(queries) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	l.readMu.Lock()
	defer l.readMu.Unlock()

	if len(docs) > 0 {
		snap, err := l.read(ctx, p)
		if err != nil {
			logger.Errorf("store: refresh %s: %v", p, err)
		} else {
			for _, s := range docs {
				s.box.offer(snap)
			}
		}
	}
	// one read per distinct ordering
	lists := map[bool][]Snapshot{}
	for _, s := range queries {
		items, ok := lists[s.query.Desc]
		if !ok {
			var err error
			items, err = l.repo.List(ctx, s.query)
			if err != nil {
				logger.Errorf("store: refresh query %s: %v", c.Collection, err)
				continue
			}
			lists[s.query.Desc] = items
		}
		s.box.offer(items)
	}
}
