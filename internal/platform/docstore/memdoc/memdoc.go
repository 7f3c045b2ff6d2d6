// Package memdoc is the in-process document store used by tests and single-node runs
package memdoc

import (
	"context"
	"sync"
	"time"

	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	ptime "popreel/internal/platform/time"
)

// Option configures a Store
type Option func(*Store)

// WithIndexes declares composite indexes; queries needing others fail with FailedPrecondition
func WithIndexes(ix ...docstore.Index) Option {
	return func(s *Store) { s.indexes.Declare(ix...) }
}

// WithClock replaces the wall clock used for create and update times
func WithClock(c ptime.Clock) Option { return func(s *Store) { s.clock = c } }

// WithFailures makes every operation fail with err while fail returns true
// tests use it to simulate an unreachable store
func WithFailures(fail func(op string) error) Option { return func(s *Store) { s.fail = fail } }

// Store keeps documents in maps under one mutex
type Store struct {
	mu      sync.RWMutex
	docs    map[string]map[string]docstore.Doc
	watches map[string]map[chan struct{}]struct{}

	indexes *docstore.Indexes
	clock   ptime.Clock
	fail    func(op string) error
}

var _ docstore.Client = (*Store)(nil)

// New returns an empty store
func New(opts ...Option) *Store {
	s := &Store{
		docs:    map[string]map[string]docstore.Doc{},
		watches: map[string]map[chan struct{}]struct{}{},
		indexes: docstore.NewIndexes(),
		clock:   ptime.System,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) check(op string) error {
	if s.fail == nil {
		return nil
	}
	if err := s.fail(op); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "memdoc "+op)
	}
	return nil
}

func clone(d docstore.Doc) docstore.Doc {
	d.Fields = docstore.Clone(d.Fields)
	return d
}

// Get reads one document
func (s *Store) Get(ctx context.Context, ref docstore.Ref) (docstore.Doc, error) {
	if err := s.check("get"); err != nil {
		return docstore.Doc{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[ref.Collection][ref.ID]
	if !ok {
		return docstore.Doc{}, perr.NotFoundf("%s not found", ref.Path())
	}
	return clone(d), nil
}

// GetAll reads many documents, skipping absent ones
func (s *Store) GetAll(ctx context.Context, refs []docstore.Ref) ([]docstore.Doc, error) {
	if err := s.check("getAll"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]docstore.Doc, 0, len(refs))
	for _, r := range refs {
		if d, ok := s.docs[r.Collection][r.ID]; ok {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

// Set writes a document
func (s *Store) Set(ctx context.Context, ref docstore.Ref, fields docstore.Fields, opts ...docstore.SetOption) error {
	return s.Batch().Set(ref, fields, opts...).Commit(ctx)
}

// Create stores fields under a fresh id
func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (docstore.Ref, error) {
	ref := docstore.NewRef(collection)
	if err := s.Batch().Create(ref, fields).Commit(ctx); err != nil {
		return docstore.Ref{}, err
	}
	return ref, nil
}

// Update patches an existing document
func (s *Store) Update(ctx context.Context, ref docstore.Ref, updates []docstore.Update, pre ...docstore.Precondition) error {
	return s.Batch().Update(ref, updates, pre...).Commit(ctx)
}

// Delete removes a document
func (s *Store) Delete(ctx context.Context, ref docstore.Ref, pre ...docstore.Precondition) error {
	return s.Batch().Delete(ref, pre...).Commit(ctx)
}

// Batch starts an atomic batch
func (s *Store) Batch() docstore.Batch { return docstore.NewBatch(s.commit) }

func (s *Store) commit(ctx context.Context, writes []docstore.Write) error {
	if err := ctx.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "memdoc commit")
	}
	if err := s.check("commit"); err != nil {
		return err
	}
	now := s.clock()
	if now.IsZero() {
		now = time.Now()
	}

	s.mu.Lock()
	staged := map[docstore.Ref]*docstore.Doc{}
	for _, w := range writes {
		cur, seen := staged[w.Ref]
		if !seen {
			if d, ok := s.docs[w.Ref.Collection][w.Ref.ID]; ok {
				c := d
				cur = &c
			}
		}
		next, err := docstore.Apply(w, cur, now)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		staged[w.Ref] = next
	}
	for ref, d := range staged {
		coll := s.docs[ref.Collection]
		if d == nil {
			delete(coll, ref.ID)
			continue
		}
		if coll == nil {
			coll = map[string]docstore.Doc{}
			s.docs[ref.Collection] = coll
		}
		coll[ref.ID] = *d
	}
	wake := s.wakersLocked(docstore.Collections(writes))
	s.mu.Unlock()

	for _, ch := range wake {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *Store) wakersLocked(collections []string) []chan struct{} {
	var out []chan struct{}
	for _, c := range collections {
		for ch := range s.watches[c] {
			out = append(out, ch)
		}
	}
	return out
}

// Query runs q against a snapshot of the collection
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Doc, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.indexes.Check(q); err != nil {
		return nil, err
	}
	if err := s.check("query"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]docstore.Doc, 0, len(s.docs[q.Collection]))
	for _, d := range s.docs[q.Collection] {
		all = append(all, d)
	}
	s.mu.RUnlock()

	res := q.Run(all)
	for i := range res {
		res[i] = clone(res[i])
	}
	return res, nil
}

// Subscribe re-runs q whenever its collection is written
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn func([]docstore.Doc, error)) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.indexes.Check(q); err != nil {
		return nil, err
	}
	wake := make(chan struct{}, 1)
	s.mu.Lock()
	if s.watches[q.Collection] == nil {
		s.watches[q.Collection] = map[chan struct{}]struct{}{}
	}
	s.watches[q.Collection][wake] = struct{}{}
	s.mu.Unlock()

	poll := func(ctx context.Context) ([]docstore.Doc, error) { return s.Query(ctx, q) }
	return docstore.Watch(ctx, poll, docstore.WatchOptions{
		Wake: wake,
		OnStop: func() {
			s.mu.Lock()
			delete(s.watches[q.Collection], wake)
			s.mu.Unlock()
		},
	}, fn), nil
}

// Watchers counts live subscriptions on collection
func (s *Store) Watchers(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watches[collection])
}

// Ping always succeeds unless a failure is injected
func (s *Store) Ping(context.Context) error { return s.check("ping") }

// Close is a no-op
func (s *Store) Close() error { return nil }
