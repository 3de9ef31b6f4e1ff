package service

import (
	"context"

	"visitagg/internal/core/dictionary"
	"visitagg/internal/core/matrix"
	"visitagg/internal/platform/logger"
	"visitagg/internal/services/aggregate/domain"
)

// sequential parses the whole stream on the calling goroutine into one growing matrix
func (s *Service) sequential(ctx context.Context, in domain.Input, base *dictionary.Paths) (*Result, error) {
	ctx = logger.WithStage(ctx, "parse")
	rc, err := in.Stream()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	names := dictionary.NewOverlay(base)
	m := matrix.New(s.horizon.Size(), names.Len())
	c, err := s.scan(ctx, rc, 0, func(path []byte, date int, off int64) error {
		id, fresh := names.Encode(path)
		if fresh {
			m.AddRow()
		}
		m.Inc(id, date, off)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.C(ctx).Debug().Int64("lines", c.lines).Int("paths", names.Len()).Msg("stream parsed")
	return &Result{Table: m, Paths: names, Stats: statsOf(c, 1)}, nil
}

func statsOf(c counts, segments int) domain.Stats {
	return domain.Stats{
		Segments: segments,
		Lines:    c.lines,
		Valid:    c.valid,
		Skipped:  c.skipped,
		Bytes:    c.bytes,
	}
}
