package domain

import (
	"context"
	"io"
)

// RunnerPort is the public port of the aggregate module
type RunnerPort interface {
	Run(ctx context.Context, job Job) (Stats, error)
}

// Input is an opened visit log
type Input interface {
	// Seekable reports whether ReaderAt can be used to split the input
	Seekable() bool
	ReaderAt() io.ReaderAt
	Size() int64
	// Stream reads the whole input from the start
	Stream() (io.ReadCloser, error)
}

// SeedPort supplies known paths before parsing starts
type SeedPort interface {
	Paths(ctx context.Context) ([]string, error)
}
