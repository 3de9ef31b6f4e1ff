// Package domain holds the aggregation job shapes shared by the service and its callers
package domain

import (
	"time"

	"visitagg/internal/core/dictionary"
	"visitagg/internal/core/linereader"
	"visitagg/internal/core/visit"
)

// Strategy selects how segments are parsed and merged
type Strategy string

const (
	// StrategySequential parses the whole input on one worker
	StrategySequential Strategy = "sequential"
	// StrategyDense gives every worker a full matrix and sums them
	StrategyDense Strategy = "dense"
	// StrategyBucketed spills (path, date) records to hash buckets and groups each bucket
	StrategyBucketed Strategy = "bucketed"
)

// Strategies lists the accepted strategy names
var Strategies = []string{string(StrategySequential), string(StrategyDense), string(StrategyBucketed)}

// Options configure an aggregation run
// the env tags name the CORE_AGG_ knob each field is read from
type Options struct {
	Strategy          Strategy      `env:"STRATEGY" validate:"oneof=sequential dense bucketed"`
	Workers           int           `env:"WORKERS" validate:"min=1,max=1024"`
	ChunkSize         int           `env:"CHUNK_SIZE" validate:"min=1"`
	Buckets           int           `env:"BUCKETS" validate:"pow2,max=65536"`
	BucketParallelism int           `env:"BUCKET_PARALLELISM" validate:"min=1,max=1024"`
	PrefixLen         int           `env:"PREFIX_LEN" validate:"min=0"`
	YearFrom          int           `env:"YEAR_FROM" validate:"min=0,max=9999"`
	YearTo            int           `env:"YEAR_TO" validate:"max=9999,gtefield=YearFrom"`
	FinalLine         string        `env:"FINAL_LINE" validate:"oneof=process drop"`
	ScratchDir        string        `env:"SCRATCH_DIR"`
	Discover          bool          `env:"DISCOVER"`
	Timeout           time.Duration `env:"TIMEOUT"`
	SeedTimeout       time.Duration `env:"SEED_TIMEOUT"`
}

// Defaults returns the built-in options
func Defaults() Options {
	return Options{
		Strategy:          StrategyDense,
		Workers:           4,
		ChunkSize:         linereader.DefaultChunkSize,
		Buckets:           256,
		BucketParallelism: 4,
		PrefixLen:         visit.DefaultPrefixLen,
		YearFrom:          2020,
		YearTo:            2026,
		FinalLine:         linereader.FinalProcess.String(),
	}
}

// Horizon is the year range as a date encoder
func (o Options) Horizon() dictionary.Horizon {
	return dictionary.Horizon{From: o.YearFrom, To: o.YearTo}
}

// Parser is the line parser for these options
func (o Options) Parser() visit.Parser {
	return visit.Parser{Layout: visit.Layout{PrefixLen: o.PrefixLen}, Horizon: o.Horizon()}
}

// Job names the input and the report destination
type Job struct {
	ID     string
	Input  string
	Output string
}

// Stats summarize a run
type Stats struct {
	JobID    string
	Strategy Strategy
	Segments int
	Lines    int64 // lines read
	Valid    int64 // lines counted
	Skipped  int64 // malformed or out of horizon
	Bytes    int64 // input bytes read
	Paths    int   // paths in the report
	Visits   uint64
	Seeded   int // paths preloaded from the catalog
	Elapsed  time.Duration
}
