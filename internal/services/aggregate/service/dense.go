package service

import (
	"context"

	"visitagg/internal/core/dictionary"
	"visitagg/internal/core/matrix"
	"visitagg/internal/core/partition"
	"visitagg/internal/platform/logger"
	"visitagg/internal/services/aggregate/domain"
)

// densePart is what one dense worker hands back
type densePart struct {
	m     *matrix.Matrix
	names *dictionary.Paths
	c     counts
}

// dense gives every worker a full matrix over the shared base dictionary plus a private
// overlay for paths the base lacks, then sums the matrices in segment order
func (s *Service) dense(ctx context.Context, in domain.Input, base *dictionary.Paths) (*Result, error) {
	segs, err := s.split(ctx, in)
	if err != nil {
		return nil, err
	}
	ra := in.ReaderAt()

	if s.opts.Discover {
		if err := s.discover(ctx, in, segs, base); err != nil {
			return nil, err
		}
	}

	pctx := logger.WithStage(ctx, "parse")
	width := s.horizon.Size()
	parts := make([]densePart, len(segs))
	err = s.forEachSegment(pctx, segs, func(ctx context.Context, seg partition.Segment) error {
		names := dictionary.NewOverlay(base)
		m := matrix.New(width, 0)
		m.Grow(base.Len())
		c, err := s.scan(ctx, seg.Section(ra), seg.Start, func(path []byte, date int, off int64) error {
			id, fresh := names.Encode(path)
			if fresh {
				m.AddRow()
			}
			m.Inc(id, date, off)
			return nil
		})
		if err != nil {
			return err
		}
		parts[seg.Index] = densePart{m: m, names: names, c: c}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mctx := logger.WithStage(ctx, "merge")
	final := dictionary.NewOverlay(base)
	total := matrix.New(width, base.Len())
	var c counts
	for i := range parts {
		p := parts[i]
		remap := make([]int, p.names.Len())
		for r := range base.Len() {
			remap[r] = r
		}
		for j, path := range p.names.Overflow() {
			id, fresh := final.Encode([]byte(path))
			if fresh {
				total.AddRow()
			}
			remap[base.Len()+j] = id
		}
		if err := total.Add(p.m, remap, 0); err != nil {
			return nil, err
		}
		c.add(p.c)
		parts[i] = densePart{}
	}
	logger.C(mctx).Debug().Int("parts", len(segs)).Int("paths", final.Len()).Msg("partial matrices merged")

	return &Result{Table: total, Paths: final, Stats: statsOf(c, len(segs))}, nil
}

// discover extends base with every path of the input in global first-seen order
// each segment lists its own paths in parallel; the lists are appended in segment order
func (s *Service) discover(ctx context.Context, in domain.Input, segs []partition.Segment, base *dictionary.Paths) error {
	ctx = logger.WithStage(ctx, "discover")
	ra := in.ReaderAt()
	lists := make([][]string, len(segs))
	err := s.forEachSegment(ctx, segs, func(ctx context.Context, seg partition.Segment) error {
		local := dictionary.NewOverlay(base)
		_, err := s.scan(ctx, seg.Section(ra), seg.Start, func(path []byte, _ int, _ int64) error {
			local.Encode(path)
			return nil
		})
		if err != nil {
			return err
		}
		lists[seg.Index] = local.Overflow()
		return nil
	})
	if err != nil {
		return err
	}

	before := base.Len()
	for _, l := range lists {
		base.Seed(l...)
	}
	logger.C(ctx).Debug().Int("paths", base.Len()-before).Msg("paths discovered")
	return nil
}
