package docstore

import (
	"context"
)

// Client is the document store every service talks to
type Client interface {
	// Get reads one document; NotFound when absent
	Get(ctx context.Context, ref Ref) (Doc, error)
	// GetAll reads many; absent documents are skipped, input order is kept
	GetAll(ctx context.Context, refs []Ref) ([]Doc, error)
	Set(ctx context.Context, ref Ref, fields Fields, opts ...SetOption) error
	// Create stores fields under a fresh id
	Create(ctx context.Context, collection string, fields Fields) (Ref, error)
	// Update patches an existing document; NotFound when absent
	Update(ctx context.Context, ref Ref, updates []Update, pre ...Precondition) error
	Delete(ctx context.Context, ref Ref, pre ...Precondition) error
	Query(ctx context.Context, q Query) ([]Doc, error)
	// Subscribe delivers the full ordered result now and after every change
	Subscribe(ctx context.Context, q Query, fn func([]Doc, error)) (Subscription, error)
	Batch() Batch
	Ping(ctx context.Context) error
	Close() error
}

// Batch stages writes that commit all together or not at all
type Batch interface {
	Set(ref Ref, fields Fields, opts ...SetOption) Batch
	Create(ref Ref, fields Fields) Batch
	Update(ref Ref, updates []Update, pre ...Precondition) Batch
	Delete(ref Ref, pre ...Precondition) Batch
	Len() int
	Commit(ctx context.Context) error
}

// Subscription is a live query handle
type Subscription interface {
	// Unsubscribe stops delivery; safe to call more than once
	Unsubscribe()
}

// Notifier carries change nudges between processes sharing one store
type Notifier interface {
	Publish(ctx context.Context, channel, msg string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, func())
}

// ChangeChannel is the notifier channel for writes to collection
func ChangeChannel(collection string) string { return "docs:" + collection }

// CommitFunc applies staged writes atomically
type CommitFunc func(ctx context.Context, writes []Write) error

// NewBatch returns a Batch that hands its writes to commit
func NewBatch(commit CommitFunc) Batch { return &batch{commit: commit} }

type batch struct {
	writes []Write
	commit CommitFunc
}

func (b *batch) Set(ref Ref, fields Fields, opts ...SetOption) Batch {
	w := Write{Kind: KindSet, Ref: ref, Fields: fields}
	for _, o := range opts {
		o(&w)
	}
	b.writes = append(b.writes, w)
	return b
}

func (b *batch) Create(ref Ref, fields Fields) Batch {
	b.writes = append(b.writes, Write{Kind: KindCreate, Ref: ref, Fields: fields})
	return b
}

func (b *batch) Update(ref Ref, updates []Update, pre ...Precondition) Batch {
	b.writes = append(b.writes, Write{Kind: KindUpdate, Ref: ref, Updates: updates, Pre: pre})
	return b
}

func (b *batch) Delete(ref Ref, pre ...Precondition) Batch {
	b.writes = append(b.writes, Write{Kind: KindDelete, Ref: ref, Pre: pre})
	return b
}

func (b *batch) Len() int { return len(b.writes) }

func (b *batch) Commit(ctx context.Context) error {
	if len(b.writes) == 0 {
		return nil
	}
	return b.commit(ctx, b.writes)
}

// Collections lists the distinct collections touched by writes
func Collections(writes []Write) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, w := range writes {
		if _, ok := seen[w.Ref.Collection]; ok {
			continue
		}
		seen[w.Ref.Collection] = struct{}{}
		out = append(out, w.Ref.Collection)
	}
	return out
}
