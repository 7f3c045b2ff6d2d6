// Package module wires comment streams into the API using modkit
package module

import (
	"net/http"

	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	str "popreel/internal/platform/strings"
	commentshttp "popreel/internal/services/comments/http"
	commentsrepo "popreel/internal/services/comments/repo"
	commentssvc "popreel/internal/services/comments/service"
	notifydom "popreel/internal/services/notifications/domain"
)

// Needs are the ports comments takes from other modules
type Needs struct {
	Notify notifydom.Sink
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)

	svc commentssvc.Service
}

// New constructs the comments module; it shares /videos with feed and engagement
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("comments"), modkit.WithPrefix("/videos")}, opts...)...)

	needs, _ := modkit.InjectedAs[Needs](b)
	svc := commentssvc.New(deps.MustDocs("comments"), commentsrepo.New(), deps.Clock, needs.Notify)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Comments: svc},
	}
	m.register = func(r httpkit.Router) { commentshttp.Register(r, m.svc, deps.Auth) }
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, m.register)
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }
