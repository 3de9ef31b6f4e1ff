// Package repo opens catalog sources over postgres, clickhouse or a plain file
package repo

import (
	"context"
	"fmt"
	"io"

	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/store"
	"visitagg/internal/services/catalog/domain"
)

// selectURIs reads every non-null uri; table and column are validated identifiers
func selectURIs(table, column string) string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL`, column, table, column)
}

type pg struct {
	q             store.Querier
	table, column string
}

// NewPG reads table.column through the postgres seam
func NewPG(q store.Querier, table, column string) domain.Opener {
	return &pg{q: q, table: table, column: column}
}

func (p *pg) Open(ctx context.Context) (domain.Source, error) {
	rows, err := p.q.Query(ctx, selectURIs(p.table, p.column))
	if err != nil {
		return nil, p.classify(err, "catalog query %s")
	}
	return &rowSource{rows: rows, wrap: func(err error) error {
		return p.classify(err, "catalog scan %s")
	}}, nil
}

// classify maps a postgres failure and names the knob to fix when the table or column is missing
func (p *pg) classify(err error, format string) error {
	out := perr.FromPGf(err, format, p.table)
	switch {
	case perr.IsUndefinedTable(err):
		out = perr.WithField(out, "TABLE")
	case perr.IsUndefinedColumn(err):
		out = perr.WithField(out, "COLUMN")
	}
	return perr.WithOp(out, "catalog.pg")
}

type ch struct {
	c             store.Clickhouse
	table, column string
}

// NewCH reads table.column through the clickhouse seam
func NewCH(c store.Clickhouse, table, column string) domain.Opener {
	return &ch{c: c, table: table, column: column}
}

func (c *ch) Open(ctx context.Context) (domain.Source, error) {
	rows, err := c.c.Query(ctx, selectURIs(c.table, c.column))
	if err != nil {
		return nil, perr.Catalogf(err, "catalog query %s", c.table)
	}
	return &rowSource{rows: rows, wrap: func(err error) error {
		return perr.Catalogf(err, "catalog scan %s", c.table)
	}}, nil
}

// rowSource adapts a result set to domain.Source
type rowSource struct {
	rows store.Rows
	wrap func(error) error
}

func (s *rowSource) Next() (domain.Record, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return domain.Record{}, s.wrap(err)
		}
		return domain.Record{}, io.EOF
	}
	var uri string
	if err := s.rows.Scan(&uri); err != nil {
		return domain.Record{}, s.wrap(err)
	}
	return domain.Record{URI: uri}, nil
}

func (s *rowSource) Close() error {
	s.rows.Close()
	return nil
}
