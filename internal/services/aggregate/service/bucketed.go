package service

import (
	"context"
	"os"
	"path/filepath"

	"visitagg/internal/core/dictionary"
	"visitagg/internal/core/matrix"
	"visitagg/internal/core/partition"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/logger"
	"visitagg/internal/services/aggregate/bucket"
	"visitagg/internal/services/aggregate/domain"

	"golang.org/x/sync/errgroup"
)

// bucketReadChunk caps the read buffer of one bucket file
const bucketReadChunk = 1 << 20

// bucketPart is what one bucketed worker hands back
type bucketPart struct {
	paths  []string // first-seen order within the segment
	firsts []int64  // offset each of paths was first seen at
	used   []bool   // buckets this worker wrote to
	c      counts
}

// cellKey addresses one count while a bucket is grouped
type cellKey struct {
	row, col int
}

// bucketed spills every visit to per-worker hash bucket files, then groups each bucket on
// its own; one path always lands in one bucket, so buckets fill disjoint rows
func (s *Service) bucketed(ctx context.Context, in domain.Input, base *dictionary.Paths) (*Result, error) {
	dir, err := s.scratchDir()
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			logger.C(ctx).Warn().Err(rerr).Str("dir", dir).Msg("remove scratch dir")
		}
	}()

	segs, err := s.split(ctx, in)
	if err != nil {
		return nil, err
	}
	ra := in.ReaderAt()
	buckets := s.opts.Buckets

	pctx := logger.WithStage(ctx, "parse")
	parts := make([]bucketPart, len(segs))
	err = s.forEachSegment(pctx, segs, func(ctx context.Context, seg partition.Segment) error {
		w := bucket.NewWriter(dir, seg.Index, buckets)
		local := dictionary.NewPaths(0)
		var firsts []int64
		date := make([]byte, 0, dictionary.DateLen)
		c, err := s.scan(ctx, seg.Section(ra), seg.Start, func(path []byte, d int, off int64) error {
			if _, fresh := local.Encode(path); fresh {
				firsts = append(firsts, off)
			}
			date = s.horizon.Append(date[:0], d)
			return w.Add(path, date)
		})
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		used := make([]bool, buckets)
		for b := range used {
			used[b] = w.Used(b)
		}
		parts[seg.Index] = bucketPart{paths: local.Overflow(), firsts: firsts, used: used, c: c}
		logger.C(ctx).Debug().Int64("records", w.Records()).Int64("spilled_bytes", w.Bytes()).Msg("segment spilled")
		return nil
	})
	if err != nil {
		return nil, err
	}

	mctx := logger.WithStage(ctx, "merge")
	names := dictionary.NewOverlay(base)
	ids := make([][]int, len(parts))
	for i, p := range parts {
		ids[i] = make([]int, len(p.paths))
		for j, path := range p.paths {
			ids[i][j], _ = names.Encode([]byte(path))
		}
	}
	table := matrix.NewSparse(names.Len())
	var c counts
	for i, p := range parts {
		for j, off := range p.firsts {
			table.Mark(ids[i][j], off)
		}
		c.add(p.c)
	}

	if err := s.group(mctx, dir, parts, names, table); err != nil {
		return nil, err
	}
	logger.C(mctx).Debug().Int("buckets", buckets).Int("paths", names.Len()).Msg("buckets grouped")

	return &Result{Table: table, Paths: names, Stats: statsOf(c, len(segs))}, nil
}

// group folds every bucket into table, at most BucketParallelism buckets at a time
func (s *Service) group(ctx context.Context, dir string, parts []bucketPart, names *dictionary.Paths, table *matrix.Sparse) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.opts.BucketParallelism, 1))
	for b := range s.opts.Buckets {
		var files []string
		for w, p := range parts {
			if p.used[b] {
				files = append(files, bucket.Name(dir, b, w))
			}
		}
		if len(files) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.groupBucket(files, names, table); err != nil {
				return perr.Keep(err, perr.ErrorCodeWorker, "group bucket")
			}
			return nil
		})
	}
	return g.Wait()
}

// groupBucket counts the records of one bucket and stores them as sparse rows
// files are removed once read
func (s *Service) groupBucket(files []string, names *dictionary.Paths, table *matrix.Sparse) error {
	acc := make(map[cellKey]uint32)
	for _, name := range files {
		err := bucket.Read(name, min(s.opts.ChunkSize, bucketReadChunk), func(path, date []byte) error {
			row, ok := names.Lookup(path)
			if !ok {
				return perr.Newf(perr.ErrorCodeIO, "bucket %s holds an unknown path", filepath.Base(name))
			}
			col, ok := s.horizon.Encode(date)
			if !ok {
				return perr.Newf(perr.ErrorCodeIO, "bucket %s holds a bad date %q", filepath.Base(name), date)
			}
			acc[cellKey{row: row, col: col}]++
			return nil
		})
		if err != nil {
			return err
		}
		if err := os.Remove(name); err != nil {
			return perr.IOf(err, "remove bucket %s", filepath.Base(name))
		}
	}

	rows := make(map[int][]matrix.Cell)
	for k, n := range acc {
		rows[k.row] = append(rows[k.row], matrix.Cell{Col: k.col, N: n})
	}
	for row, cells := range rows {
		table.Set(row, cells)
	}
	return nil
}

// scratchDir creates the per-run directory for bucket files
func (s *Service) scratchDir() (string, error) {
	root := s.opts.ScratchDir
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "visitagg_"+s.newID())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", perr.IOf(err, "create scratch dir")
	}
	return dir, nil
}
