package store

import (
	"context"
	"errors"
	"time"

	"visitagg/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
)

// pgQuerier streams catalog queries from the pool
// with a tracer set, one event is emitted per query once its rows are closed
type pgQuerier struct {
	p *pg.PG
}

func (a *pgQuerier) Ping(ctx context.Context) error {
	if a == nil || a.p == nil || a.p.Pool == nil {
		return errors.New("pg: not open")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgQuerier) Close() error { a.p.Close(); return nil }

func (a *pgQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	if err != nil {
		a.emit(ctx, sql, args, 0, start, err)
		return nil, err
	}
	return &tracedRows{r: rs, done: func(n int64, err error) {
		a.emit(ctx, sql, args, n, start, err)
	}}, nil
}

func (a *pgQuerier) emit(ctx context.Context, sql string, args []any, n int64, start time.Time, err error) {
	if a.p.Tracer == nil {
		return
	}
	a.p.Tracer.OnQuery(ctx, pg.NewEvent(sql, args, n, time.Since(start), a.p.SlowMs, err))
}

// tracedRows counts rows and reports once on Close
type tracedRows struct {
	r      pgx.Rows
	n      int64
	done   func(int64, error)
	closed bool
}

func (x *tracedRows) Next() bool {
	if x.r.Next() {
		x.n++
		return true
	}
	return false
}

func (x *tracedRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x *tracedRows) Err() error            { return x.r.Err() }

func (x *tracedRows) Close() {
	if x.closed {
		return
	}
	x.closed = true
	x.r.Close()
	if x.done != nil {
		x.done(x.n, x.r.Err())
	}
}
