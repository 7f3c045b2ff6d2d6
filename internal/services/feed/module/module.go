// Package module wires the feed into the API using modkit
package module

import (
	"context"
	"net/http"

	"popreel/internal/core/model"
	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	str "popreel/internal/platform/strings"
	feeddom "popreel/internal/services/feed/domain"
	feedhttp "popreel/internal/services/feed/http"
	feedrepo "popreel/internal/services/feed/repo"
	feedsvc "popreel/internal/services/feed/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports Ports

	svc feedsvc.Service
}

// New constructs a feed module; prefix is where the paged feed lives, lookups mount at the API root
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("feed"), modkit.WithPrefix("/feed")}, opts...)...)

	svc := feedsvc.New(deps.MustDocs("feed"), feedrepo.New())
	return &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Feed: adaptFeedPort{svc: svc}},
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, "/", m.mws, func(api httpkit.Router) {
		feedhttp.Register(api, m.Prefix(), m.svc)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports is what the feed offers other modules
type Ports struct {
	Feed feeddom.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptFeedPort struct{ svc feedsvc.Service }

func (a adaptFeedPort) FetchPage(ctx context.Context, pageSize int, cursor string) (feeddom.Page, error) {
	return a.svc.FetchPage(ctx, pageSize, cursor)
}

func (a adaptFeedPort) Get(ctx context.Context, videoID string) (model.Video, error) {
	return a.svc.Get(ctx, videoID)
}

func (a adaptFeedPort) Search(ctx context.Context, term string, limit int) ([]model.Video, error) {
	return a.svc.Search(ctx, term, limit)
}

func (a adaptFeedPort) ByHashtag(ctx context.Context, tag string, limit int) ([]model.Video, error) {
	return a.svc.ByHashtag(ctx, tag, limit)
}
