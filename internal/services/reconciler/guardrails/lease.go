// Package guardrails keeps reconciler workers from running the same pass twice
package guardrails

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"popreel/internal/platform/docstore"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	ptime "popreel/internal/platform/time"

	"github.com/google/uuid"
)

// Collection holds one lease document per named job
const Collection = "leases"

var (
	// ErrLeaseHeld signals another worker owns the lease
	ErrLeaseHeld = errors.New("reconciler: lease already held")
	// ErrLeaseLost signals the lease was taken over while do was running
	ErrLeaseLost = errors.New("reconciler: lease lost mid pass")
)

// Owner names this process in lease documents
func Owner(role string) string {
	return fmt.Sprintf("%s:%d:%s", role, os.Getpid(), uuid.NewString()[:8])
}

// MakeLease claims leases/<name> for ttl (expired leases are reclaimed) and runs do while holding it
// the claim is a versioned write, so two workers racing for an expired lease cannot both win
// while do runs the lease is pushed out every ttl/3; if another owner takes it, do's context is
// cancelled and ErrLeaseLost is returned
func MakeLease(
	db docstore.Client,
	owner string,
	ttl time.Duration,
	clock ptime.Clock,
) func(ctx context.Context, name string, do func(context.Context) error) error {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return func(ctx context.Context, name string, do func(context.Context) error) error {
		ref := docstore.Ref{Collection: Collection, ID: name}
		now := clock.NowMillis()
		expires := now + ttl.Milliseconds()

		cur, err := db.Get(ctx, ref)
		b := db.Batch()
		switch {
		case perr.IsCode(err, perr.ErrorCodeNotFound):
			b.Create(ref, docstore.Fields{"owner": owner, "expiresAt": expires})
		case err != nil:
			return err
		case cur.Str("owner") != owner && cur.Int("expiresAt") > now:
			return ErrLeaseHeld
		default:
			b.Update(ref, []docstore.Update{
				{Path: "owner", Value: owner},
				{Path: "expiresAt", Value: expires},
			}, docstore.LastVersion(cur.Version))
		}
		if err := b.Commit(ctx); err != nil {
			if perr.IsCode(err, perr.ErrorCodeConflict) {
				return ErrLeaseHeld
			}
			return err
		}

		runCtx, cancel := context.WithCancelCause(ctx)
		stop, exited := make(chan struct{}), make(chan struct{})
		go func() {
			defer close(exited)
			keepAlive(runCtx, stop, db, ref, owner, ttl, clock, cancel)
		}()
		defer func() {
			close(stop)
			<-exited
			cancel(nil)
			release(db, ref, owner)
		}()

		err = do(runCtx)
		if cause := context.Cause(runCtx); errors.Is(cause, ErrLeaseLost) {
			return cause
		}
		return err
	}
}

// keepAlive extends the lease until stop closes; a read or write error is retried on the next tick
func keepAlive(
	ctx context.Context,
	stop <-chan struct{},
	db docstore.Client,
	ref docstore.Ref,
	owner string,
	ttl time.Duration,
	clock ptime.Clock,
	lost context.CancelCauseFunc,
) {
	log := logger.Named("reconciler")
	t := time.NewTicker(ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
		}
		cur, err := db.Get(ctx, ref)
		if err != nil {
			log.Warn().Err(err).Str("lease", ref.ID).Msg("lease renew read failed")
			continue
		}
		if cur.Str("owner") != owner {
			log.Warn().Str("lease", ref.ID).Str("holder", cur.Str("owner")).Msg("lease taken over")
			lost(ErrLeaseLost)
			return
		}
		err = db.Batch().
			Update(ref, []docstore.Update{{Path: "expiresAt", Value: clock.NowMillis() + ttl.Milliseconds()}}, docstore.LastVersion(cur.Version)).
			Commit(ctx)
		if err != nil {
			log.Warn().Err(err).Str("lease", ref.ID).Msg("lease renew failed")
		}
	}
}

// release expires the lease when it is still ours; a failure only delays the next claim until ttl
func release(db docstore.Client, ref docstore.Ref, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cur, err := db.Get(ctx, ref)
	if err != nil || cur.Str("owner") != owner {
		return
	}
	err = db.Batch().
		Update(ref, []docstore.Update{{Path: "expiresAt", Value: int64(0)}}, docstore.LastVersion(cur.Version)).
		Commit(ctx)
	if err != nil {
		logger.Named("reconciler").Debug().Err(err).Str("lease", ref.ID).Msg("lease release skipped")
	}
}
