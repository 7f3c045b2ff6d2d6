package repokit

import "popreel/internal/platform/docstore"

// Binder is a tiny factory that binds a domain repo to a document store client
type Binder[T any] interface {
	Bind(docstore.Client) T
}

// BindFunc lets you create a Binder from a function
type BindFunc[T any] func(docstore.Client) T

// Bind calls the underlying function
func (f BindFunc[T]) Bind(c docstore.Client) T { return f(c) }

// RequireClient panics early on programmer error (nil client)
func RequireClient(c docstore.Client) docstore.Client {
	if c == nil {
		panic("repokit: nil docstore client")
	}
	return c
}

// MustBind is a convenience that validates c then binds
func MustBind[T any](b Binder[T], c docstore.Client) T {
	if b == nil {
		panic("repokit: nil binder")
	}
	return b.Bind(RequireClient(c))
}
