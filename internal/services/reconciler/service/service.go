// Package service runs the engagement log reconciler
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/modkit/repokit"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	"popreel/internal/services/reconciler/domain"
	"popreel/internal/services/reconciler/guardrails"

	"golang.org/x/sync/errgroup"
)

// LeaseName is the lease every reconciler worker competes for
const LeaseName = "reconciler"

// Config controls batch size, concurrency and repair behavior
type Config struct {
	// Batch is how many log entries one pass leases
	Batch int

	// Workers bounds concurrent video audits
	Workers int

	Interval time.Duration

	// Repair corrects drift; when false drift is only logged
	Repair bool

	// EnableLeases uses the shared lease (optional)
	EnableLeases bool
}

// Service wires the document store and the sink into reconciler passes
type Service struct {
	DB   repokit.Client
	Repo domain.StorageRepo
	Sink domain.Sink
	Cfg  Config

	// Lease(ctx, name, do) should claim the named lease and run do()
	Lease func(ctx context.Context, name string, do func(context.Context) error) error
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the reconciler; sink and lease may be nil
func New(
	db repokit.Client,
	binder repokit.Binder[domain.StorageRepo],
	sink domain.Sink,
	cfg Config,
	lease func(context.Context, string, func(context.Context) error) error,
) *Service {
	if db == nil {
		panic("reconciler.Service requires a non nil docstore client")
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Service{DB: db, Repo: repokit.MustBind(binder, db), Sink: sink, Cfg: cfg, Lease: lease}
}

// RunOnce runs one pass, under the lease when leases are enabled
func (s *Service) RunOnce(ctx context.Context) (domain.Report, error) {
	if s.Lease == nil || !s.Cfg.EnableLeases {
		return s.pass(ctx)
	}
	var rep domain.Report
	err := s.Lease(ctx, LeaseName, func(ctx context.Context) error {
		var err error
		rep, err = s.pass(ctx)
		return err
	})
	if errors.Is(err, guardrails.ErrLeaseHeld) {
		logger.C(ctx).Debug().Msg("reconciler: lease held elsewhere; clean skip")
		return domain.Report{Skipped: true}, nil
	}
	return rep, err
}

func (s *Service) pass(ctx context.Context) (domain.Report, error) {
	var rep domain.Report
	l := logger.C(ctx).With().Str("mod", "reconciler").Logger()

	entries, err := s.Repo.Pending(ctx, s.Cfg.Batch)
	if err != nil {
		return rep, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "read engagement log")
	}
	if len(entries) == 0 {
		return rep, nil
	}
	rep.Leased = len(entries)

	if s.Sink != nil {
		if err := s.Sink.Ship(ctx, entries); err != nil {
			return rep, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "ship engagement events")
		}
		rep.Shipped = len(entries)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.Workers)
	for _, id := range videoIDs(entries) {
		g.Go(func() error {
			d, err := s.Repo.Audit(gctx, id)
			if err != nil {
				return perr.WrapKeep(err, perr.ErrorCodeUnavailable, "audit "+id)
			}
			if !d.Exists {
				return nil
			}
			repaired := false
			if d.Delta() != 0 {
				l.Warn().Str("video", id).Int64("likeCount", d.LikeCount).Int64("members", d.Members).Msg("like counter drift")
				if s.Cfg.Repair {
					repaired, err = s.repair(gctx, d)
					if err != nil {
						return err
					}
				}
			}
			mu.Lock()
			defer mu.Unlock()
			rep.Audited++
			if d.Delta() != 0 {
				rep.Drifted++
			}
			if repaired {
				rep.Repaired++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	b := s.DB.Batch()
	s.Repo.MarkShipped(b, entries)
	if err := b.Commit(ctx); err != nil {
		return rep, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "mark engagement log shipped")
	}

	l.Info().Int("leased", rep.Leased).Int("audited", rep.Audited).Int("drifted", rep.Drifted).Int("repaired", rep.Repaired).Msg("reconciler: pass done")
	return rep, nil
}

// repair skips a video whose counter moved since the audit; the next pass looks again
func (s *Service) repair(ctx context.Context, d domain.Drift) (bool, error) {
	b := s.DB.Batch()
	s.Repo.Repair(b, d)
	err := b.Commit(ctx)
	if perr.IsCode(err, perr.ErrorCodeConflict) {
		logger.C(ctx).Debug().Str("video", d.VideoID).Msg("reconciler: video changed during audit")
		return false, nil
	}
	if err != nil {
		return false, perr.WrapKeep(err, perr.ErrorCodeUnavailable, "repair "+d.VideoID)
	}
	return true, nil
}

// Run loops RunOnce every interval until ctx ends; a failed pass is logged and retried next tick
func (s *Service) Run(ctx context.Context) error {
	t := time.NewTicker(s.Cfg.Interval)
	defer t.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.C(ctx).Error().Err(err).Msg("reconciler: pass failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func videoIDs(entries []model.EngagementEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.VideoID]; ok {
			continue
		}
		seen[e.VideoID] = struct{}{}
		out = append(out, e.VideoID)
	}
	return out
}
