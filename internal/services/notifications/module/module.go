// Package module wires notifications into the API using modkit
package module

import (
	"net/http"

	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	str "popreel/internal/platform/strings"
	notifyhttp "popreel/internal/services/notifications/http"
	notifyrepo "popreel/internal/services/notifications/repo"
	notifysvc "popreel/internal/services/notifications/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)

	svc notifysvc.Service
}

// New constructs a notifications module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("notifications"), modkit.WithPrefix("/notifications")}, opts...)...)

	svc := notifysvc.New(deps.MustDocs("notifications"), notifyrepo.New(), deps.Clock)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Sink: adaptSink{svc: svc}},
	}
	m.register = func(r httpkit.Router) { notifyhttp.Register(r, m.svc, deps.Auth) }
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
