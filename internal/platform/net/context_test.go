package net

import (
	"context"
	"testing"
)

func TestWithRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if RequestID(WithRequest(ctx, "")) != "" {
		t.Fatalf("empty id should not be stored")
	}
	if got := RequestID(WithRequest(ctx, "req-1")); got != "req-1" {
		t.Fatalf("RequestID = %q", got)
	}
}

func TestPrincipal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, ok := PrincipalFrom(ctx); ok {
		t.Fatalf("bare context has no principal")
	}
	if UserID(WithPrincipal(ctx, Principal{Name: "anon"})) != "" {
		t.Fatalf("principal without uid should be ignored")
	}

	ctx = WithPrincipal(ctx, Principal{UID: "u1", Name: "Ada", Email: "ada@example.com"})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.UID != "u1" || p.Name != "Ada" {
		t.Fatalf("principal = %+v ok=%v", p, ok)
	}
	if UserID(ctx) != "u1" {
		t.Fatalf("UserID = %q", UserID(ctx))
	}
}
