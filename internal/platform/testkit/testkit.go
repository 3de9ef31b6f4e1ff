// Package testkit provides testing helpers
package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// MustPanic asserts that fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustContain asserts that haystack contains needle. If not, writes haystack to a temp file for debugging
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		tmpfile := filepath.Join(t.TempDir(), "haystack.txt")
		_ = os.WriteFile(tmpfile, []byte(haystack), 0o600)
		t.Fatalf("expected output to contain %q\n\nfull output written to %s", needle, tmpfile)
	}
}

// WriteFile writes content to name under a fresh temp dir and returns the full path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// Visit is one synthetic log row
type Visit struct {
	Path string
	Date string
}

// VisitLines renders visits as "prefix+path,date,extra\n" lines
func VisitLines(prefix string, vs ...Visit) string {
	var b strings.Builder
	for i, v := range vs {
		fmt.Fprintf(&b, "%s%s,%s,r%d\n", prefix, v.Path, v.Date, i)
	}
	return b.String()
}

// SyntheticLog builds a deterministic log of n rows cycling through paths and dates,
// useful for worker-count invariance checks
func SyntheticLog(prefix string, n int, paths, dates []string) string {
	vs := make([]Visit, 0, n)
	for i := range n {
		// stride the dates so a path sees several of them
		vs = append(vs, Visit{Path: paths[(i*7)%len(paths)], Date: dates[(i*13+i/3)%len(dates)]})
	}
	return VisitLines(prefix, vs...)
}

var seamMu sync.Mutex

// Swap replaces a package-level seam (func or var) for the duration of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial runs the rest of the test under a global lock so tests that Swap shared seams
// do not interleave
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(func() { seamMu.Unlock() })
}
