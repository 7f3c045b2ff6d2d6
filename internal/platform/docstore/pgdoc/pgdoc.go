// Package pgdoc stores documents as jsonb rows in postgres
// Writes lock the touched rows inside one transaction and apply mutations in Go;
// subscriptions poll and diff, nudged through a Notifier after every commit
package pgdoc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	"popreel/internal/platform/store"
	ptime "popreel/internal/platform/time"

	sq "github.com/Masterminds/squirrel"
)

const table = "documents"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var columns = []string{"id", "data", "version", "create_time", "update_time"}

// Options configures a Store
type Options struct {
	// PollInterval re-reads live queries on a timer; nudges come on top
	PollInterval time.Duration
	Indexes      []docstore.Index
	// Notifier fans change nudges out to other processes, optional
	Notifier docstore.Notifier
	Clock    ptime.Clock
	Log      *logger.Logger
}

// Store is the postgres document store
type Store struct {
	db       store.TxRunner
	indexes  *docstore.Indexes
	notifier docstore.Notifier
	poll     time.Duration
	clock    ptime.Clock
	log      *logger.Logger

	mu    sync.Mutex
	local map[string]map[chan struct{}]struct{}
}

var _ docstore.Client = (*Store)(nil)

// New wraps a transaction runner; panics on nil
func New(db store.TxRunner, opt Options) *Store {
	if db == nil {
		panic("pgdoc.New: nil db")
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = 2 * time.Second
	}
	if opt.Clock == nil {
		opt.Clock = ptime.System
	}
	if opt.Log == nil {
		opt.Log = logger.Named("pgdoc")
	}
	return &Store{
		db:       db,
		indexes:  docstore.NewIndexes(opt.Indexes...),
		notifier: opt.Notifier,
		poll:     opt.PollInterval,
		clock:    opt.Clock,
		log:      opt.Log,
		local:    map[string]map[chan struct{}]struct{}{},
	}
}

func scanDoc(collection string) func(store.Row) (docstore.Doc, error) {
	return func(r store.Row) (docstore.Doc, error) {
		var (
			d    docstore.Doc
			data []byte
		)
		d.Ref.Collection = collection
		if err := r.Scan(&d.Ref.ID, &data, &d.Version, &d.CreateTime, &d.UpdateTime); err != nil {
			return docstore.Doc{}, err
		}
		f, err := docstore.DecodeJSON(data)
		if err != nil {
			return docstore.Doc{}, perr.Wrapf(err, perr.ErrorCodeDB, "decode %s/%s", collection, d.Ref.ID)
		}
		d.Fields = f
		return d, nil
	}
}

// Get reads one document
func (s *Store) Get(ctx context.Context, ref docstore.Ref) (docstore.Doc, error) {
	sql, args, err := psql.Select(columns...).From(table).
		Where(sq.Eq{"collection": ref.Collection, "id": ref.ID}).ToSql()
	if err != nil {
		return docstore.Doc{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build get")
	}
	d, err := store.One(ctx, s.db, scanDoc(ref.Collection), sql, args...)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return docstore.Doc{}, perr.NotFoundf("%s not found", ref.Path())
	}
	if err != nil {
		return docstore.Doc{}, dbErr(err, "get", "get "+ref.Path())
	}
	return d, nil
}

// GetAll reads many documents, one statement per collection, keeping input order
func (s *Store) GetAll(ctx context.Context, refs []docstore.Ref) ([]docstore.Doc, error) {
	found, err := s.load(ctx, s.db, refs, false)
	if err != nil {
		return nil, dbErr(err, "get_all", "get all")
	}
	out := make([]docstore.Doc, 0, len(refs))
	for _, r := range refs {
		if d, ok := found[r]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) load(ctx context.Context, q store.RowQuerier, refs []docstore.Ref, lock bool) (map[docstore.Ref]docstore.Doc, error) {
	byColl := map[string][]string{}
	var order []string
	for _, r := range refs {
		if _, ok := byColl[r.Collection]; !ok {
			order = append(order, r.Collection)
		}
		byColl[r.Collection] = append(byColl[r.Collection], r.ID)
	}

	out := make(map[docstore.Ref]docstore.Doc, len(refs))
	for _, coll := range order {
		b := psql.Select(columns...).From(table).
			Where(sq.Eq{"collection": coll, "id": byColl[coll]}).
			OrderBy("id")
		if lock {
			b = b.Suffix("FOR UPDATE")
		}
		sql, args, err := b.ToSql()
		if err != nil {
			return nil, err
		}
		docs, err := store.Many(ctx, q, scanDoc(coll), sql, args...)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			out[d.Ref] = d
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
	now := s.clock().UTC().Truncate(time.Microsecond)

	var refs []docstore.Ref
	seen := map[docstore.Ref]struct{}{}
	for _, w := range writes {
		if _, ok := seen[w.Ref]; !ok {
			seen[w.Ref] = struct{}{}
			refs = append(refs, w.Ref)
		}
	}

	err := s.db.Tx(ctx, func(q store.RowQuerier) error {
		orig, err := s.load(ctx, q, refs, true)
		if err != nil {
			return err
		}
		staged := make(map[docstore.Ref]*docstore.Doc, len(refs))
		for r, d := range orig {
			c := d
			staged[r] = &c
		}
		for _, w := range writes {
			next, err := docstore.Apply(w, staged[w.Ref], now)
			if err != nil {
				return err
			}
			staged[w.Ref] = next
		}
		for _, r := range refs {
			_, existed := orig[r]
			if err := persist(ctx, q, r, existed, staged[r]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dbErr(err, "commit", "commit batch")
	}
	s.changed(ctx, docstore.Collections(writes))
	return nil
}

// dbErr maps a driver error and labels it with the store operation
// a unique clash on insert means a concurrent create won; WithBatch reruns on Conflict
func dbErr(err error, op, msg string) error {
	if perr.IsDuplicateKey(err) {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeConflict, msg+": document created concurrently"), op)
	}
	return perr.WithOp(perr.FromPostgres(err, msg), op)
}

func persist(ctx context.Context, q store.RowQuerier, r docstore.Ref, existed bool, d *docstore.Doc) error {
	where := sq.Eq{"collection": r.Collection, "id": r.ID}
	switch {
	case d == nil && !existed:
		return nil
	case d == nil:
		sql, args, err := psql.Delete(table).Where(where).ToSql()
		if err != nil {
			return err
		}
		return store.ExecOne(ctx, q, sql, args...)
	}

	data, err := json.Marshal(d.Fields)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "encode %s", r.Path())
	}
	var (
		sql  string
		args []any
	)
	if existed {
		sql, args, err = psql.Update(table).
			Set("data", sq.Expr("?::jsonb", string(data))).
			Set("version", d.Version).
			Set("update_time", d.UpdateTime).
			Where(where).ToSql()
	} else {
		sql, args, err = psql.Insert(table).
			Columns("collection", "id", "data", "version", "create_time", "update_time").
			Values(r.Collection, r.ID, sq.Expr("?::jsonb", string(data)), d.Version, d.CreateTime, d.UpdateTime).
			ToSql()
	}
	if err != nil {
		return err
	}
	return store.ExecOne(ctx, q, sql, args...)
}

// changed wakes local subscribers and nudges other processes
func (s *Store) changed(ctx context.Context, collections []string) {
	s.mu.Lock()
	var wake []chan struct{}
	for _, c := range collections {
		for ch := range s.local[c] {
			wake = append(wake, ch)
		}
	}
	s.mu.Unlock()
	for _, ch := range wake {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	if s.notifier == nil {
		return
	}
	for _, c := range collections {
		if err := s.notifier.Publish(ctx, docstore.ChangeChannel(c), c); err != nil {
			s.log.Warn().Err(err).Str("collection", c).Msg("change nudge failed")
		}
	}
}

// Query runs q as one select
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Doc, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.indexes.Check(q); err != nil {
		return nil, err
	}
	sql, args, err := selectFor(q)
	if err != nil {
		return nil, err
	}
	docs, err := store.Many(ctx, s.db, scanDoc(q.Collection), sql, args...)
	if err != nil {
		return nil, dbErr(err, "query", "query "+q.Collection)
	}
	return docs, nil
}

// Subscribe polls q on an interval and on every nudge for its collection
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, fn func([]docstore.Doc, error)) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.indexes.Check(q); err != nil {
		return nil, err
	}

	wake := make(chan struct{}, 1)
	s.mu.Lock()
	if s.local[q.Collection] == nil {
		s.local[q.Collection] = map[chan struct{}]struct{}{}
	}
	s.local[q.Collection][wake] = struct{}{}
	s.mu.Unlock()

	stopRemote := func() {}
	if s.notifier != nil {
		msgs, stop := s.notifier.Subscribe(ctx, docstore.ChangeChannel(q.Collection))
		fwd := make(chan struct{})
		go func() {
			defer close(fwd)
			for range msgs {
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}()
		stopRemote = func() {
			stop()
			<-fwd
		}
	}

	poll := func(ctx context.Context) ([]docstore.Doc, error) { return s.Query(ctx, q) }
	return docstore.Watch(ctx, poll, docstore.WatchOptions{
		Interval: s.poll,
		Wake:     wake,
		OnStop: func() {
			stopRemote()
			s.mu.Lock()
			delete(s.local[q.Collection], wake)
			s.mu.Unlock()
		},
	}, fn), nil
}

// Ping checks the database
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close leaves the pool to its owner
func (s *Store) Close() error { return nil }
