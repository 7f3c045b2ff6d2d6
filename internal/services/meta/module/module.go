// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	kitmodule "popreel/internal/modkit/module"
	str "popreel/internal/platform/strings"

	metahttp "popreel/internal/services/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	register func(httpkit.Router)

	startedAt time.Time
}

// New constructs a meta module; extra are readiness checks beyond the shared stores
// such as the media origin
func New(deps modkit.Deps, service string, extra []metahttp.Dependency, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		startedAt: deps.Now(),
	}

	checks := []metahttp.Dependency{
		{Name: "docstore", Pinger: deps.Docs, Required: true},
		{Name: "clickhouse", Pinger: deps.CH},
		{Name: "redis"},
	}
	// a nil *rds.Client would make a non nil Pinger
	if deps.Cache != nil {
		checks[2].Pinger = deps.Cache
	}
	checks = append(checks, extra...)

	m.register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: service,
			StartedAt:   m.startedAt,
			Checks:      checks,
			Modules:     kitmodule.Names,
		})
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, m.register)
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
