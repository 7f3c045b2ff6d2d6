// @title         PopReel API
// @version       0.1.0
// @description   Short video feed, engagement, comments and profiles

package main

import (
	"context"
	"os/signal"
	"syscall"

	"popreel/internal/adapters/identity"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/modkit/repokit"
	"popreel/internal/platform/config"
	"popreel/internal/platform/docstore/drivers"
	"popreel/internal/platform/logger"
	phttp "popreel/internal/platform/net/http"
	"popreel/internal/platform/store"

	"popreel/internal/services/api"
	uploadsmod "popreel/internal/services/uploads/module"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// postgres backs the document store; clickhouse and redis are optional
	st, err := store.Open(ctx, store.ConfigFrom(root, "api"), store.WithLogger(*l))
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
	defer func() {
		if err := docs.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close docstore")
		}
	}()

	// fail fast when a configured backend is down
	repokit.MustGuard(ctx, st)
	repokit.MustPing(ctx, "docstore", docs)

	idm := identity.New(identity.FromConfig(root))

	origin, err := uploadsmod.OriginFromConfig(ctx, root)
	if err != nil {
		l.Panic().Err(err).Msg("media origin failed")
	}

	// http server (reads CORE_API_SERVICE_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Docs:           docs,
			Origin:         origin,
			Auth:           httpkit.NewPortFunc(idm.Verify),
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
