package repokit

import (
	"context"
	"fmt"
	"time"
)

// BootTimeout bounds each startup probe when ctx carries no deadline
const BootTimeout = 5 * time.Second

// Pinger is a dependency with a health probe: docstore clients, media origins
type Pinger interface {
	Ping(context.Context) error
}

type guarder interface {
	Guard(context.Context) error
}

// MustPing panics when the named dependency is nil or does not answer in time
func MustPing(ctx context.Context, name string, p Pinger) {
	if p == nil {
		panic(fmt.Sprintf("%s: nil dependency", name))
	}
	ctx, cancel := bounded(ctx)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		panic(fmt.Sprintf("%s ping failed: %v", name, err))
	}
}

// MustGuard runs the store's backend checks and panics on any failure
func MustGuard(ctx context.Context, st guarder) {
	ctx, cancel := bounded(ctx)
	defer cancel()
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}

func bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, BootTimeout)
}
