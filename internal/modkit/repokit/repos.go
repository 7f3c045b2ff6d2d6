// Package repokit provides common types and helpers for document repositories
package repokit

import (
	"context"

	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
)

type (
	// Client is the store surface repos are bound to
	Client = docstore.Client

	// Batch is an atomic group of writes
	Batch = docstore.Batch

	// Doc is a document snapshot
	Doc = docstore.Doc

	// Ref addresses a document
	Ref = docstore.Ref

	// Fields is a document body
	Fields = docstore.Fields
)

// DefaultAttempts is how many times WithBatch runs a read and commit cycle
const DefaultAttempts = 3

// WithBatch stages writes through fn on a fresh batch and commits them
// a Conflict from a stale precondition, or any other retryable commit error, reruns fn
// so reads belong inside it
func WithBatch(ctx context.Context, c Client, attempts int, fn func(ctx context.Context, b Batch) error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return perr.Wrap(cerr, perr.ErrorCodeUnavailable, "batch cancelled")
		}
		b := c.Batch()
		if err = fn(ctx, b); err != nil {
			return err
		}
		if err = b.Commit(ctx); err == nil || !perr.Retryable(err) {
			return err
		}
	}
	return err
}

// Refs maps ids in one collection to refs
func Refs(collection string, ids []string) []Ref {
	out := make([]Ref, len(ids))
	for i, id := range ids {
		out[i] = Ref{Collection: collection, ID: id}
	}
	return out
}

// Exists reports whether ref is present; NotFound is not an error here
func Exists(ctx context.Context, c Client, ref Ref) (bool, error) {
	_, err := c.Get(ctx, ref)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return false, nil
	}
	return err == nil, err
}
