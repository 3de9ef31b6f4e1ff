// Package visit splits a log line into its path and date fields
//
// A line is PREFIX + path + "," + YYYY-MM-DD [+ "," + ignored fields]. The prefix is a fixed
// number of bytes that is skipped without looking at it.
package visit

import (
	"bytes"

	"visitagg/internal/core/dictionary"
)

// DefaultPrefixLen is len("https://stitcher.io")
const DefaultPrefixLen = 19

// Layout locates the fields of a line
type Layout struct {
	PrefixLen int
}

// Split returns the path and the ten date bytes of line
// ok is false when the line is shorter than the prefix, has no comma after it,
// or has fewer than ten bytes after the comma
func (l Layout) Split(line []byte) (path, date []byte, ok bool) {
	if len(line) < l.PrefixLen {
		return nil, nil, false
	}
	rest := line[l.PrefixLen:]
	comma := bytes.IndexByte(rest, ',')
	if comma < 0 || len(rest)-comma-1 < dictionary.DateLen {
		return nil, nil, false
	}
	return rest[:comma], rest[comma+1 : comma+1+dictionary.DateLen], true
}

// Strip derives a path from a full uri by dropping the prefix
func (l Layout) Strip(uri string) (string, bool) {
	if len(uri) < l.PrefixLen {
		return "", false
	}
	return uri[l.PrefixLen:], true
}

// Parser turns lines into (path, date id) pairs
type Parser struct {
	Layout  Layout
	Horizon dictionary.Horizon
}

// Parse returns the path bytes (aliasing line) and date id of a valid line
func (p Parser) Parse(line []byte) (path []byte, date int, ok bool) {
	path, raw, ok := p.Layout.Split(line)
	if !ok {
		return nil, 0, false
	}
	date, ok = p.Horizon.Encode(raw)
	if !ok {
		return nil, 0, false
	}
	return path, date, true
}
