package store

import (
	"context"

	"visitagg/internal/platform/logger"
	chx "visitagg/internal/platform/store/ch"
	"visitagg/internal/platform/store/pg"
)

func openPG(ctx context.Context, cfg Config, log logger.Logger) (Querier, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:         cfg.PG.URL,
		MaxConns:    cfg.PG.MaxConns,
		SlowMs:      cfg.PG.SlowQueryMs,
		AppName:     cfg.AppName,
		Attempts:    cfg.PG.ConnectRetries,
		PingTimeout: cfg.PG.PingTimeout,
	}, tracer)
	if err != nil {
		return nil, err
	}
	log.Debug().Int32("max_conns", p.Pool.Config().MaxConns).Msg("postgres catalog ready")
	return &pgQuerier{p: p}, nil
}

func openCH(ctx context.Context, cfg Config, log logger.Logger) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		DialTimeout: cfg.CH.DialTimeout,
		Role:        cfg.AppName,
		Tag:         cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("tag", cfg.CH.ClientTag).Msg("clickhouse catalog ready")
	return &chQuerier{c: c}, nil
}
