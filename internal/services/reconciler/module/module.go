// Package module wires up the reconciler as a modkit.Module
package module

import (
	"context"

	"popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	rcdom "popreel/internal/services/reconciler/domain"
	"popreel/internal/services/reconciler/guardrails"
	rcrepo "popreel/internal/services/reconciler/repo"
	rcservice "popreel/internal/services/reconciler/service"
)

// Ports exported by the reconciler module
type Ports struct {
	Runner rcdom.RunnerPort
}

// Module implements modkit.Module for the reconciler
type Module struct {
	deps  modkit.Deps
	ports Ports
	sink  *rcrepo.CHSink
}

// New constructs and wires the reconciler using deps.Cfg
// events are shipped to clickhouse only when deps.CH is set
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	db := deps.MustDocs("reconciler")

	lease := guardrails.MakeLease(db, guardrails.Owner("reconciler"), opts.LeaseTTL, deps.Clock)

	m := &Module{deps: deps, sink: rcrepo.NewSink(deps.CH)}
	var sink rcdom.Sink
	if m.sink != nil {
		sink = m.sink
	}
	svc := rcservice.New(db, rcrepo.New(), sink, rcservice.Config{
		Batch:        opts.Batch,
		Workers:      opts.Workers,
		Interval:     opts.Interval,
		Repair:       opts.Repair,
		EnableLeases: opts.EnableLeases,
	}, lease)
	m.ports = Ports{Runner: svc}
	return m
}

// Prepare creates the clickhouse events table when shipping is on
func (m *Module) Prepare(ctx context.Context) error {
	if m.sink == nil {
		return nil
	}
	return m.sink.Ensure(ctx)
}

// Name returns the module name
func (m *Module) Name() string { return "reconciler" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module route prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op: the reconciler has no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
