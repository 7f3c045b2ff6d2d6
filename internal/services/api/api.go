// Package api provides the HTTP API for the application
package api

import (
	"popreel/internal/adapters/media"
	"popreel/internal/core/version"
	"popreel/internal/platform/config"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/logger"
	phttp "popreel/internal/platform/net/http"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/platform/store"
	ptime "popreel/internal/platform/time"

	"popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/modkit/module"
	"popreel/internal/modkit/swaggerkit"

	commentsmod "popreel/internal/services/comments/module"
	commentsrepo "popreel/internal/services/comments/repo"
	likesmod "popreel/internal/services/engagement/module"
	feedmod "popreel/internal/services/feed/module"
	feedrepo "popreel/internal/services/feed/repo"
	followsmod "popreel/internal/services/follows/module"
	metahttp "popreel/internal/services/meta/http"
	metamod "popreel/internal/services/meta/module"
	notifymod "popreel/internal/services/notifications/module"
	notifyrepo "popreel/internal/services/notifications/repo"
	profilesmod "popreel/internal/services/profiles/module"
	profilesrepo "popreel/internal/services/profiles/repo"
	rcrepo "popreel/internal/services/reconciler/repo"
	uploadsmod "popreel/internal/services/uploads/module"
)

// ServiceName tags logs, version info and readiness output
const ServiceName = "popreel-api"

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Docs   docstore.Client
	Origin media.Origin
	Auth   middleware.AuthPort
	Clock  ptime.Clock
	Logger *logger.Logger

	EnableSwagger  bool
	EnableProfiler bool
}

// Indexes are the composite indexes every query in the process needs
// the document store refuses queries that would need an index missing from this list
func Indexes() []docstore.Index {
	var ix []docstore.Index
	for _, set := range [][]docstore.Index{
		feedrepo.Indexes,
		commentsrepo.Indexes,
		profilesrepo.Indexes,
		notifyrepo.Indexes,
		rcrepo.Indexes,
	} {
		ix = append(ix, set...)
	}
	return ix
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:   opt.Config,
		Docs:  opt.Docs,
		Clock: opt.Clock,
		Auth:  opt.Auth,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.CH = opt.Store.CH
		deps.Cache = opt.Store.RDS
	}

	// notifications and profiles go first: their ports are injected into the writers below
	notifications := notifymod.New(deps)
	sink := module.MustPortsOf[notifymod.Ports](notifications).Sink

	profiles := profilesmod.New(deps, profilesmod.FromConfig(deps.Cfg))
	stats := module.MustPortsOf[profilesmod.Ports](profiles).Stats

	var extra []metahttp.Dependency
	if p, ok := opt.Origin.(metahttp.Pinger); ok {
		extra = append(extra, metahttp.Dependency{Name: "media", Pinger: p})
	}

	mods := []module.Module{
		metamod.New(deps, ServiceName, extra),
		notifications,
		profiles,
		likesmod.New(deps, modkit.WithPorts(likesmod.Needs{Notify: sink, Stats: stats})),
		commentsmod.New(deps, modkit.WithPorts(commentsmod.Needs{Notify: sink})),
		followsmod.New(deps, modkit.WithPorts(followsmod.Needs{Notify: sink, Stats: stats})),
		uploadsmod.New(deps, opt.Origin,
			modkit.WithPorts(uploadsmod.Needs{Stats: stats}),
			// uploads buffer whole clips; cap how many run at once
			modkit.WithMiddlewares(middleware.Throttle(opt.Config.Prefix("MEDIA_").MayInt("UPLOAD_CONCURRENCY", 8))),
		),
		feedmod.New(deps),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(httpkit.StackFromConfig(opt.Config)), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, swaggerkit.Options{
			Enabled: opt.EnableSwagger,
			Title:   "PopReel API",
			Version: version.Info(ServiceName).Version,
			Base:    httpkit.APIBase,
			Secured: httpkit.RequiresAuth,
		})
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name; meta lists them
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
