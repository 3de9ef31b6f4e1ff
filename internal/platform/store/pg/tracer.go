package pg

import (
	"context"
	"strings"
	"time"

	"visitagg/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one catalog query, timed from send until its rows are closed
type QueryEvent struct {
	SQL       string
	Args      any
	Rows      int64
	ElapsedUS int64
	Err       error
	Slow      bool
}

// NewEvent builds a QueryEvent; slowMs < 0 disables the slow flag
func NewEvent(sql string, args any, rows int64, elapsed time.Duration, slowMs int, err error) QueryEvent {
	us := elapsed.Microseconds()
	return QueryEvent{
		SQL:       sql,
		Args:      args,
		Rows:      rows,
		ElapsedUS: us,
		Err:       err,
		Slow:      slowMs >= 0 && us >= int64(slowMs)*1000,
	}
}

// QueryTracer receives an event per query
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every query when LogSQL is on, independent of the root level
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}

	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Int64("rows", ev.Rows).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds runs of whitespace into a single space
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
