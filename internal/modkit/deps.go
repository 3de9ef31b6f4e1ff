// Package modkit provides module wiring and core deps
package modkit

import (
	"visitagg/internal/platform/config"
	"visitagg/internal/platform/logger"
	"visitagg/internal/platform/store"
)

// Deps is what every module builder receives; PG and CH are nil unless the catalog
// source needs them
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.Querier
	CH  store.Clickhouse
}

// FromStore copies the open seams of s into a Deps
// a nil store leaves the seams nil
func FromStore(log logger.Logger, cfg config.Conf, s *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if s != nil {
		d.PG = s.PG
		d.CH = s.CH
	}
	return d
}
