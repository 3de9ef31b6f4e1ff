// Package domain holds the path catalog shapes
package domain

import "context"

// Kind names where catalog records come from
type Kind string

const (
	// KindNone disables the catalog
	KindNone Kind = "none"
	// KindPG reads a postgres table
	KindPG Kind = "pg"
	// KindCH reads a clickhouse table
	KindCH Kind = "ch"
	// KindFile reads one uri per line from a plain file
	KindFile Kind = "file"
)

// Kinds lists the accepted source names
var Kinds = []string{string(KindNone), string(KindPG), string(KindCH), string(KindFile)}

// Record is one catalog entry
type Record struct {
	URI string
}

// Source yields records one at a time; Next returns io.EOF after the last one
type Source interface {
	Next() (Record, error)
	Close() error
}

// Opener starts a fresh pass over the catalog
type Opener interface {
	Open(ctx context.Context) (Source, error)
}

// PathsPort lists every catalog path, prefix already stripped
type PathsPort interface {
	Paths(ctx context.Context) ([]string, error)
}

// Options configure the catalog; env tags name the CORE_CATALOG_ knobs
type Options struct {
	Source Kind   `env:"SOURCE" validate:"oneof=none pg ch file"`
	Table  string `env:"TABLE" validate:"omitempty,ident"`
	Column string `env:"COLUMN" validate:"omitempty,ident"`
	File   string `env:"FILE" validate:"required_if=Source file"`
}
