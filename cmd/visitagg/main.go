// Command visitagg aggregates a visit log into a per-path, per-date JSON report
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"visitagg/internal/core/version"
	"visitagg/internal/core/visit"
	"visitagg/internal/modkit"
	"visitagg/internal/modkit/module"
	"visitagg/internal/platform/config"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/logger"
	"visitagg/internal/platform/store"

	aggdom "visitagg/internal/services/aggregate/domain"
	aggmod "visitagg/internal/services/aggregate/module"
	catdom "visitagg/internal/services/catalog/domain"
	catmod "visitagg/internal/services/catalog/module"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		fIn       = flag.String("in", "", "visit log to aggregate (.gz is streamed)")
		fOut      = flag.String("out", "", "report destination; replaced only when the run succeeds")
		fStrategy = flag.String("strategy", "", "sequential | dense | bucketed (default CORE_AGG_STRATEGY or dense)")
		fWorkers  = flag.Int("workers", 0, "parse workers (default CORE_AGG_WORKERS or 4)")
		fJob      = flag.String("job", "", "job id for logs (default random)")
		fVersion  = flag.Bool("version", false, "print the build version and exit")
	)
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info())
		return 0
	}

	l := logger.Get()
	if *fIn == "" || *fOut == "" {
		fmt.Fprintln(os.Stderr, "usage: visitagg -in visits.csv -out report.json [-strategy dense] [-workers 8]")
		return perr.ExitCode(perr.ErrorCodeInvalidArgument)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	catOpts := catmod.FromConfig(root)

	st, err := openStore(ctx, root, catOpts.Source, *l)
	if err != nil {
		l.Error().Err(err).Msg("store open failed")
		return perr.ExitStatus(perr.Keep(err, perr.ErrorCodeCatalog, "open store"))
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Warn().Err(err).Msg("failed to close store")
		}
	}()

	if err := st.Guard(ctx); err != nil {
		l.Error().Err(err).Msg("catalog backend not ready")
		return perr.ExitStatus(perr.Catalogf(err, "store guard"))
	}

	deps := modkit.FromStore(*l, root, st)

	overrides := []aggmod.Override{}
	if *fStrategy != "" {
		overrides = append(overrides, func(o *aggdom.Options) { o.Strategy = aggdom.Strategy(*fStrategy) })
	}
	if *fWorkers > 0 {
		overrides = append(overrides, func(o *aggdom.Options) { o.Workers = *fWorkers })
	}

	// the catalog strips the same prefix the parser skips
	prefixLen := aggmod.FromConfig(root).PrefixLen
	cat, err := catmod.New(deps, visit.Layout{PrefixLen: prefixLen})
	if err != nil {
		l.Error().Err(err).Msg("catalog setup failed")
		return perr.ExitStatus(err)
	}
	var seeds aggdom.SeedPort
	if module.Enabled(cat) {
		seeds = module.MustPortsOf[catdom.PathsPort](cat)
		l.Info().Str("source", string(catOpts.Source)).Msg("catalog seeds enabled")
	}

	agg, err := aggmod.Builder(seeds, overrides...)(deps)
	if err != nil {
		l.Error().Err(err).Msg("invalid aggregation options")
		return perr.ExitStatus(err)
	}

	runner := module.MustPortsOf[aggdom.RunnerPort](agg)
	if _, err := runner.Run(ctx, aggdom.Job{ID: *fJob, Input: *fIn, Output: *fOut}); err != nil {
		if perr.IsCode(err, perr.ErrorCodeCanceled) {
			l.Warn().Err(err).Msg("aggregation canceled; no report written")
			return perr.ExitStatus(err)
		}
		evt := l.Error().Err(err).Str("code", perr.CodeOf(err).String())
		if e, ok := perr.As(err); ok && e.Field() != "" {
			evt = evt.Str("field", e.Field())
		}
		evt.Msg("aggregation failed")
		return perr.ExitStatus(err)
	}
	return 0
}

// openStore connects only the backend the catalog reads from
func openStore(ctx context.Context, root config.Conf, src catdom.Kind, l logger.Logger) (*store.Store, error) {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	cfg := store.Config{AppName: "visitagg"}
	switch src {
	case catdom.KindPG:
		cfg.PG = store.PGConfig{
			Enabled:        true,
			URL:            pgCfg.MustString("DBURL"),
			MaxConns:       int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs:    pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:         pgCfg.MayBool("LOG_SQL", false),
			ConnectRetries: pgCfg.MayInt("CONNECT_RETRIES", 6),
			PingTimeout:    pgCfg.MayDuration("PING_TIMEOUT", 0),
		}
	case catdom.KindCH:
		cfg.CH = store.CHConfig{
			Enabled:     true,
			URL:         chCfg.MustString("DBURL"),
			DialTimeout: chCfg.MayDuration("DIAL_TIMEOUT", 0),
			ClientTag:   version.Info().Version,
		}
	}
	return store.Open(ctx, cfg, store.WithLogger(l))
}
