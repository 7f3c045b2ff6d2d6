// Package net carries request scoped identity on the context
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey uint8

const keyPrincipal ctxKey = iota

// Principal is the signed in user behind a request
// Name, Email and Photo come from identity claims and may be empty
type Principal struct {
	UID   string
	Name  string
	Email string
	Photo string
}

// WithRequest sets the chi request id so chimw.GetReqID finds it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithPrincipal stores the authenticated principal; an empty UID is ignored
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if p.UID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyPrincipal, p)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// PrincipalFrom returns the principal and whether one was set
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(keyPrincipal).(Principal)
	return p, ok
}

// UserID returns the principal's uid or ""
func UserID(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.UID
}
