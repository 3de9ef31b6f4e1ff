// Package module provides the catalog module implementation
package module

import (
	"visitagg/internal/core/visit"
	"visitagg/internal/modkit"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/validate"
	"visitagg/internal/services/catalog/domain"
	"visitagg/internal/services/catalog/repo"
	"visitagg/internal/services/catalog/service"
)

// Ports defines the catalog module ports
// Paths is nil when the catalog is disabled
type Ports struct {
	Paths domain.PathsPort
}

// Module implements the catalog module
type Module struct {
	deps  modkit.Deps
	opts  domain.Options
	ports Ports
}

// New constructs the catalog module from CORE_CATALOG_* in deps.Cfg
// layout must match the one the aggregator parses lines with
func New(deps modkit.Deps, layout visit.Layout) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}

	var src domain.Opener
	switch opts.Source {
	case domain.KindPG:
		if deps.PG == nil {
			return nil, perr.WithField(perr.InvalidArgf("catalog source pg needs a postgres store"), "SOURCE")
		}
		src = repo.NewPG(deps.PG, opts.Table, opts.Column)
	case domain.KindCH:
		if deps.CH == nil {
			return nil, perr.WithField(perr.InvalidArgf("catalog source ch needs a clickhouse store"), "SOURCE")
		}
		src = repo.NewCH(deps.CH, opts.Table, opts.Column)
	case domain.KindFile:
		src = repo.NewFile(opts.File)
	}

	m := &Module{deps: deps, opts: opts}
	if src != nil {
		m.ports = Ports{Paths: service.New(src, layout)}
	}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "catalog" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the effective options
func (m *Module) Options() domain.Options { return m.opts }

// Enabled reports whether a catalog source is configured
func (m *Module) Enabled() bool { return m.ports.Paths != nil }
