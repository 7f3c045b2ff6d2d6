package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"popreel/internal/modkit"
	"popreel/internal/modkit/module"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/config"
	"popreel/internal/platform/docstore/drivers"
	"popreel/internal/platform/logger"
	"popreel/internal/platform/store"

	"popreel/internal/services/api"
	rcmod "popreel/internal/services/reconciler/module"
)

func main() {
	root := config.New()
	l := logger.Get()

	fOnce := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFrom(root, "reconciler"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	docs, err := drivers.Open(drivers.ConfigFrom(root), st, api.Indexes())
	if err != nil {
		l.Panic().Err(err).Msg("docstore open failed")
	}
	defer func() { _ = docs.Close() }()

	// fail fast when a configured backend is down
	repokit.MustGuard(ctx, st)
	repokit.MustPing(ctx, "docstore", docs)

	deps := modkit.Deps{
		Cfg:  root,
		Docs: docs,
		CH:   st.CH,
		Log:  *l,
	}

	rc := rcmod.New(deps)
	if err := rc.Prepare(ctx); err != nil {
		l.Panic().Err(err).Msg("clickhouse events table")
	}
	module.Register(rc.Name(), rc.Ports())
	ports := module.MustPortsOf[rcmod.Ports](rc)

	if *fOnce {
		rep, err := ports.Runner.RunOnce(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("reconcile pass failed")
		}
		l.Info().Interface("report", rep).Msg("reconcile pass done")
		return
	}
	if err := ports.Runner.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("reconciler stopped")
	}
}
