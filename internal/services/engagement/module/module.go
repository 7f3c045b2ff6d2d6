// Package module wires the engagement ledger into the API using modkit
package module

import (
	"net/http"

	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	str "popreel/internal/platform/strings"
	likeshttp "popreel/internal/services/engagement/http"
	likesrepo "popreel/internal/services/engagement/repo"
	likessvc "popreel/internal/services/engagement/service"
	notifydom "popreel/internal/services/notifications/domain"
	profiledom "popreel/internal/services/profiles/domain"
)

// Needs are the ports engagement takes from other modules, injected with modkit.WithPorts
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

	svc likessvc.Service
}

// New constructs the engagement module; it mounts under /videos next to feed and comments
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("engagement"), modkit.WithPrefix("/videos")}, opts...)...)

	var sopts []likessvc.Option
	if n, ok := modkit.InjectedAs[Needs](b); ok {
		if n.Notify != nil {
			sopts = append(sopts, likessvc.WithNotifier(n.Notify))
		}
		if n.Stats != nil {
			sopts = append(sopts, likessvc.WithStatsCache(n.Stats))
		}
	}
	svc := likessvc.New(deps.MustDocs("engagement"), likesrepo.New(), deps.Clock, sopts...)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Likes: adaptLikesPort{svc: svc}},
	}
	m.register = func(r httpkit.Router) { likeshttp.Register(r, m.svc, deps.Auth) }
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
