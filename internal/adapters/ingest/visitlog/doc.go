// Package visitlog opens visit log files for the aggregation engine
//
// Plain files are memory-mapped and exposed as an io.ReaderAt so they can be split into
// line-aligned segments and read by several workers at once. Files ending in .gz are
// streamed through a gzip reader; they can only be read front to back by one worker.
package visitlog
