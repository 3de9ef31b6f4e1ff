package store

import (
	"context"

	"visitagg/internal/platform/store/ch"
)

// chQuerier exposes *ch.CH as the Clickhouse seam
type chQuerier struct {
	c *ch.CH
}

var _ Clickhouse = (*chQuerier)(nil)

func (a *chQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *chQuerier) Ping(ctx context.Context) error { return a.c.Ping(ctx) }
func (a *chQuerier) Close() error                   { return a.c.Close() }

// chRows drops the close error; the scan error surfaces through Err
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
