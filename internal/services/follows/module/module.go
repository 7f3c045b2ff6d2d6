// Package module wires follows into the API using modkit
package module

import (
	"net/http"

	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	str "popreel/internal/platform/strings"
	followshttp "popreel/internal/services/follows/http"
	followsrepo "popreel/internal/services/follows/repo"
	followssvc "popreel/internal/services/follows/service"
	notifydom "popreel/internal/services/notifications/domain"
	profiledom "popreel/internal/services/profiles/domain"
)

// Needs are the ports follows takes from other modules
type Needs struct {
	Notify notifydom.Sink
	Stats  profiledom.StatsCache
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)

	svc followssvc.Service
}

// New constructs the follows module; it shares /profiles with the profiles module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("follows"), modkit.WithPrefix("/profiles")}, opts...)...)

	needs, _ := modkit.InjectedAs[Needs](b)
	svc := followssvc.New(deps.MustDocs("follows"), followsrepo.New(), deps.Clock, needs.Notify, needs.Stats)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Follows: svc},
	}
	m.register = func(r httpkit.Router) { followshttp.Register(r, m.svc, deps.Auth) }
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
