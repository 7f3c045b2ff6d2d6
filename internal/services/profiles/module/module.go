// Package module wires profiles into the API using modkit
package module

import (
	"net/http"
	"time"

	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/config"
	str "popreel/internal/platform/strings"
	profilehttp "popreel/internal/services/profiles/http"
	profilerepo "popreel/internal/services/profiles/repo"
	profilesvc "popreel/internal/services/profiles/service"
)

// Options tunes the profile aggregator
type Options struct {
	StatsTTL time.Duration
}

// FromConfig reads PROFILES_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	pc := cfg.Prefix("PROFILES_")
	return Options{StatsTTL: pc.MayDuration("STATS_TTL", 30*time.Second)}
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)

	svc profilesvc.Service
}

// New constructs a profiles module; stats are cached in redis when deps carry a cache
func New(deps modkit.Deps, opt Options, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("profiles"), modkit.WithPrefix("/profiles")}, opts...)...)

	var sopts []profilesvc.Option
	if deps.Cache != nil {
		sopts = append(sopts, profilesvc.WithCache(deps.Cache, opt.StatsTTL))
	}
	svc := profilesvc.New(deps.MustDocs("profiles"), profilerepo.New(), deps.Clock, sopts...)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Profiles: svc, Stats: svc},
	}
	m.register = func(r httpkit.Router) { profilehttp.Register(r, m.svc, deps.Auth) }
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
