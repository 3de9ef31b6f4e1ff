// Package service turns catalog records into the paths the aggregator preloads
package service

import (
	"context"
	"errors"
	"io"

	"visitagg/internal/core/visit"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/logger"
	"visitagg/internal/services/catalog/domain"
)

const ctxEvery = 1 << 12

// Service implements domain.PathsPort
type Service struct {
	src    domain.Opener
	layout visit.Layout
}

// New strips layout's prefix from every uri src yields
func New(src domain.Opener, layout visit.Layout) *Service {
	return &Service{src: src, layout: layout}
}

// Paths reads the whole catalog once
// uris shorter than the prefix cannot name a path and are skipped
func (s *Service) Paths(ctx context.Context) ([]string, error) {
	src, err := s.src.Open(ctx)
	if err != nil {
		return nil, perr.Keep(err, perr.ErrorCodeCatalog, "open catalog")
	}
	defer func() { _ = src.Close() }()

	var (
		out     []string
		skipped int
	)
	for n := 0; ; n++ {
		if n&(ctxEvery-1) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perr.Keep(err, perr.ErrorCodeCatalog, "read catalog")
		}
		p, ok := s.layout.Strip(rec.URI)
		if !ok {
			skipped++
			continue
		}
		out = append(out, p)
	}

	logger.C(ctx).Debug().Int("paths", len(out)).Int("skipped", skipped).Msg("catalog read")
	return out, nil
}

var _ domain.PathsPort = (*Service)(nil)
