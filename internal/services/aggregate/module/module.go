// Package module provides the aggregate module implementation
package module

import (
	"visitagg/internal/modkit"
	"visitagg/internal/services/aggregate/domain"
	"visitagg/internal/services/aggregate/service"
)

// Ports defines the aggregate module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the aggregate module
type Module struct {
	deps  modkit.Deps
	opts  domain.Options
	ports Ports
}

// Override adjusts options after they are read from config, e.g. from CLI flags
type Override func(*domain.Options)

// New constructs the aggregate module from CORE_AGG_* in deps.Cfg
// seeds is optional; overrides are applied in order before validation
func New(deps modkit.Deps, seeds domain.SeedPort, overrides ...Override) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	for _, o := range overrides {
		o(&opts)
	}

	svc, err := service.New(opts, seeds)
	if err != nil {
		return nil, err
	}

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{Runner: svc}
	return m, nil
}

// Builder adapts New to modkit.Builder
func Builder(seeds domain.SeedPort, overrides ...Override) modkit.Builder {
	return func(deps modkit.Deps) (modkit.Module, error) {
		return New(deps, seeds, overrides...)
	}
}

// Name returns the module name
func (m *Module) Name() string { return "aggregate" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the effective options
func (m *Module) Options() domain.Options { return m.opts }
