package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"visitagg/internal/core/linereader"
	"visitagg/internal/core/partition"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/logger"
	"visitagg/internal/services/aggregate/domain"

	"github.com/sourcegraph/conc/pool"
)

// ctxEvery is how many lines are parsed between cancellation checks; a power of two
const ctxEvery = 1 << 16

// counts tallies what one scan saw
type counts struct {
	lines   int64
	valid   int64
	skipped int64
	bytes   int64
}

func (c *counts) add(o counts) {
	c.lines += o.lines
	c.valid += o.valid
	c.skipped += o.skipped
	c.bytes += o.bytes
}

// visitFn receives one valid line: its path bytes (valid only during the call),
// date id and absolute input offset
type visitFn func(path []byte, date int, off int64) error

// scan reads r line by line and hands every valid visit to fn
// base is the absolute offset of r's first byte
func (s *Service) scan(ctx context.Context, r io.Reader, base int64, fn visitFn) (counts, error) {
	lr := linereader.New(r, linereader.Options{ChunkSize: s.opts.ChunkSize, Final: s.final, Base: base})
	var c counts
	for {
		if c.lines&(ctxEvery-1) == 0 {
			if err := ctx.Err(); err != nil {
				return c, err
			}
		}
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c, perr.IOf(err, "read input after offset %d", max(lr.Offset(), base))
		}
		c.lines++
		path, date, ok := s.parser.Parse(line)
		if !ok {
			c.skipped++
			continue
		}
		c.valid++
		if err := fn(path, date, lr.Offset()); err != nil {
			return c, err
		}
	}
	c.bytes = lr.Stats().Bytes
	return c, nil
}

// forEachSegment runs fn for every segment on at most Workers goroutines
// the first failure cancels the others and is the one returned
func (s *Service) forEachSegment(ctx context.Context, segs []partition.Segment, fn func(context.Context, partition.Segment) error) error {
	p := pool.New().
		WithMaxGoroutines(max(s.opts.Workers, 1)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for _, seg := range segs {
		p.Go(func(ctx context.Context) error {
			ctx = logger.WithSegment(ctx, seg.Index)
			if err := fn(ctx, seg); err != nil {
				return perr.Keep(err, perr.ErrorCodeWorker, fmt.Sprintf("segment %d", seg.Index))
			}
			logger.C(ctx).Debug().Int64("start", seg.Start).Int64("end", seg.End).Msg("segment done")
			return nil
		})
	}
	return p.Wait()
}

// split partitions a seekable input into one segment per worker
func (s *Service) split(ctx context.Context, in domain.Input) ([]partition.Segment, error) {
	segs, err := partition.Split(in.ReaderAt(), in.Size(), s.opts.Workers)
	if err != nil {
		return nil, err
	}
	logger.C(logger.WithStage(ctx, "partition")).Debug().Int("segments", len(segs)).Int64("bytes", in.Size()).Msg("input partitioned")
	return segs, nil
}
