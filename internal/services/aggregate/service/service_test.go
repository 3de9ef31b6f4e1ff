package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"visitagg/internal/core/dictionary"
	perr "visitagg/internal/platform/errors"
	kit "visitagg/internal/platform/testkit"
	"visitagg/internal/services/aggregate/domain"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blog = "https://example.test/blog/"

var strategies = []domain.Strategy{domain.StrategySequential, domain.StrategyDense, domain.StrategyBucketed}

func testOptions(t *testing.T, strategy domain.Strategy, workers int) domain.Options {
	t.Helper()
	o := domain.Defaults()
	o.Strategy = strategy
	o.Workers = workers
	o.ChunkSize = 64
	o.Buckets = 8
	o.BucketParallelism = 3
	o.PrefixLen = len(blog)
	o.ScratchDir = t.TempDir()
	return o
}

func newService(t *testing.T, o domain.Options, seeds domain.SeedPort) *Service {
	t.Helper()
	svc, err := New(o, seeds)
	require.NoError(t, err)
	return svc
}

// run aggregates content and returns the report text
func run(t *testing.T, svc *Service, content string) (string, domain.Stats) {
	t.Helper()
	in := kit.WriteFile(t, "visits.csv", content)
	out := filepath.Join(t.TempDir(), "report.json")
	st, err := svc.Run(context.Background(), domain.Job{Input: in, Output: out})
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(b), st
}

// countsOf flattens a result into path -> date -> count
func countsOf(t *testing.T, svc *Service, res *Result) map[string]map[string]uint32 {
	t.Helper()
	out := map[string]map[string]uint32{}
	for _, row := range res.Table.Order() {
		path := res.Paths.Path(row)
		res.Table.Each(row, func(col int, n uint32) {
			if out[path] == nil {
				out[path] = map[string]uint32{}
			}
			out[path][svc.horizon.Decode(col)] += n
		})
	}
	return out
}

func TestRun_BlogScenario(t *testing.T) {
	t.Parallel()

	content := blog + "foo,2024-01-01,X\n" +
		blog + "foo,2024-01-01,Y\n" +
		blog + "bar,2024-01-02,Z\n"
	want := "{\n" +
		"    \"foo\": {\n" +
		"        \"2024-01-01\": 2\n" +
		"    },\n" +
		"    \"bar\": {\n" +
		"        \"2024-01-02\": 1\n" +
		"    }\n" +
		"}"

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			got, st := run(t, newService(t, testOptions(t, s, 2), nil), content)
			assert.Equal(t, want, got)
			assert.Equal(t, s, st.Strategy)
			assert.Equal(t, int64(3), st.Valid)
			assert.Equal(t, uint64(3), st.Visits)
			assert.Equal(t, 2, st.Paths)
			assert.NotEmpty(t, st.JobID)
		})
	}
}

func TestRun_OutputIndependentOfWorkersAndStrategy(t *testing.T) {
	t.Parallel()

	paths := []string{"a", "b/c", "d\"q", "e\\f", "g/h/i", "j", "k", "l", "m", "n", "o"}
	dates := []string{"2020-01-01", "2021-07-15", "2024-02-29", "2024-12-31", "2026-12-31", "2023-03-03"}
	content := kit.SyntheticLog(blog, 3000, paths, dates)

	want, _ := run(t, newService(t, testOptions(t, domain.StrategySequential, 1), nil), content)
	require.NotEqual(t, "{}", want)

	for _, s := range strategies {
		for _, workers := range []int{1, 2, 3, 8, 64} {
			t.Run(fmt.Sprintf("%s_%d", s, workers), func(t *testing.T) {
				t.Parallel()
				got, st := run(t, newService(t, testOptions(t, s, workers), nil), content)
				assert.Equal(t, want, got)
				assert.Equal(t, int64(3000), st.Valid)
			})
		}
	}
}

func TestRun_DiscoverKeepsOutput(t *testing.T) {
	t.Parallel()

	content := kit.SyntheticLog(blog, 500, []string{"x", "y", "z/1"}, []string{"2022-02-02", "2022-02-03"})
	want, _ := run(t, newService(t, testOptions(t, domain.StrategySequential, 1), nil), content)

	o := testOptions(t, domain.StrategyDense, 4)
	o.Discover = true
	got, _ := run(t, newService(t, o, nil), content)
	assert.Equal(t, want, got)
}

func TestAggregate_SumOfCountsIsValidLines(t *testing.T) {
	t.Parallel()

	content := kit.VisitLines(blog,
		kit.Visit{Path: "first-day", Date: "2020-01-01"},
		kit.Visit{Path: "last-day", Date: "2026-12-31"},
		kit.Visit{Path: "too-early", Date: "2019-12-31"},
		kit.Visit{Path: "too-late", Date: "2027-01-01"},
		kit.Visit{Path: "bad-month", Date: "2024-13-01"},
		kit.Visit{Path: "first-day", Date: "2020-01-01"},
	) +
		"short\n" +
		blog + "no-comma\n" +
		blog + "truncated,2024-01\n" +
		"\n" +
		blog + "crlf,2025-05-05,x\r\n"

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			got, st := run(t, newService(t, testOptions(t, s, 3), nil), content)

			assert.Equal(t, int64(11), st.Lines)
			assert.Equal(t, int64(4), st.Valid)
			assert.Equal(t, int64(7), st.Skipped)
			assert.Equal(t, uint64(st.Valid), st.Visits)
			assert.Contains(t, got, "\"2020-01-01\": 2")
			assert.Contains(t, got, "\"2026-12-31\": 1")
			assert.Contains(t, got, "\"crlf\"")
			assert.NotContains(t, got, "too-")
			assert.NotContains(t, got, "bad-month")
		})
	}
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			got, st := run(t, newService(t, testOptions(t, s, 4), nil), "")
			assert.Equal(t, "{}", got)
			assert.Zero(t, st.Lines)
			assert.Zero(t, st.Paths)
		})
	}
}

func TestRun_EscapesSlashes(t *testing.T) {
	t.Parallel()

	got, _ := run(t, newService(t, testOptions(t, domain.StrategyBucketed, 2), nil),
		kit.VisitLines(blog, kit.Visit{Path: "2024/01/hello", Date: "2024-01-05"}))
	assert.Contains(t, got, `"2024\/01\/hello": {`)
}

func TestAggregate_ConcatenationEqualsMerge(t *testing.T) {
	t.Parallel()

	a := kit.SyntheticLog(blog, 400, []string{"p", "q", "r"}, []string{"2021-01-01", "2021-01-02"})
	b := kit.SyntheticLog(blog, 300, []string{"r", "s"}, []string{"2021-01-02", "2025-06-30"})

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			svc := newService(t, testOptions(t, s, 3), nil)
			agg := func(content string) map[string]map[string]uint32 {
				src, err := openVisitLog(kit.WriteFile(t, "part.csv", content))
				require.NoError(t, err)
				defer func() { _ = src.Close() }()
				res, err := svc.Aggregate(context.Background(), "job", src)
				require.NoError(t, err)
				return countsOf(t, svc, res)
			}

			merged := agg(a)
			for path, ds := range agg(b) {
				if merged[path] == nil {
					merged[path] = map[string]uint32{}
				}
				for d, n := range ds {
					merged[path][d] += n
				}
			}
			assert.Equal(t, merged, agg(a+b))
		})
	}
}

func TestRun_GzipInputIsParsedSequentially(t *testing.T) {
	t.Parallel()

	content := kit.SyntheticLog(blog, 1000, []string{"one", "two/2", "three"}, []string{"2024-01-01", "2024-01-02"})
	want, _ := run(t, newService(t, testOptions(t, domain.StrategySequential, 1), nil), content)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	in := filepath.Join(t.TempDir(), "visits.csv.gz")
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o600))
	out := filepath.Join(t.TempDir(), "report.json")

	svc := newService(t, testOptions(t, domain.StrategyBucketed, 4), nil)
	st, err := svc.Run(context.Background(), domain.Job{Input: in, Output: out})
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, want, string(got))
	assert.Equal(t, domain.StrategySequential, st.Strategy)
	assert.Equal(t, int64(len(content)), st.Bytes)
}

func TestRun_FinalLinePolicy(t *testing.T) {
	t.Parallel()

	content := blog + "a,2024-01-01\n" + blog + "b,2024-01-01"
	cases := []struct {
		policy string
		paths  int
	}{
		{"process", 2},
		{"drop", 1},
	}
	for _, tc := range cases {
		for _, s := range strategies {
			t.Run(tc.policy+"_"+string(s), func(t *testing.T) {
				t.Parallel()
				o := testOptions(t, s, 2)
				o.FinalLine = tc.policy
				_, st := run(t, newService(t, o, nil), content)
				assert.Equal(t, tc.paths, st.Paths)
			})
		}
	}
}

// brokenInput fails every read past failAt
type brokenInput struct {
	data   []byte
	failAt int64
}

func (b *brokenInput) Seekable() bool        { return true }
func (b *brokenInput) ReaderAt() io.ReaderAt { return b }
func (b *brokenInput) Size() int64           { return int64(len(b.data)) }
func (b *brokenInput) Close() error          { return nil }
func (b *brokenInput) Stream() (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(b, 0, b.Size())), nil
}

func (b *brokenInput) ReadAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > b.failAt {
		return 0, errors.New("device gone")
	}
	return copy(p, b.data[off:]), nil
}

func TestRun_FailureLeavesNoReport(t *testing.T) {
	t.Parallel()

	content := kit.SyntheticLog(blog, 2000, []string{"a", "b"}, []string{"2024-01-01"})
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			o := testOptions(t, s, 4)
			svc := newService(t, o, nil)
			svc.open = func(string) (source, error) {
				return &brokenInput{data: []byte(content), failAt: int64(len(content)) * 3 / 4}, nil
			}

			out := filepath.Join(t.TempDir(), "report.json")
			_, err := svc.Run(context.Background(), domain.Job{Input: "ignored", Output: out})
			require.Error(t, err)
			assert.Equal(t, perr.ErrorCodeIO, perr.CodeOf(err))

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
			left, err := os.ReadDir(filepath.Dir(out))
			require.NoError(t, err)
			assert.Empty(t, left)

			scratch, err := os.ReadDir(o.ScratchDir)
			require.NoError(t, err)
			assert.Empty(t, scratch)
		})
	}
}

func TestRun_BucketedRemovesScratch(t *testing.T) {
	t.Parallel()

	o := testOptions(t, domain.StrategyBucketed, 4)
	var ids []string
	svc := newService(t, o, nil)
	svc.newID = func() string {
		id := fmt.Sprintf("id%d", len(ids))
		ids = append(ids, id)
		return id
	}
	_, st := run(t, svc, kit.SyntheticLog(blog, 800, []string{"a", "b", "c"}, []string{"2024-01-01"}))

	assert.Equal(t, "id0", st.JobID)
	assert.Equal(t, []string{"id0", "id1"}, ids)
	left, err := os.ReadDir(o.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

type seedsFunc func(context.Context) ([]string, error)

func (f seedsFunc) Paths(ctx context.Context) ([]string, error) { return f(ctx) }

func TestRun_CatalogSeedsDoNotChangeOutput(t *testing.T) {
	t.Parallel()

	content := kit.VisitLines(blog,
		kit.Visit{Path: "foo", Date: "2024-01-01"},
		kit.Visit{Path: "bar", Date: "2024-01-02"},
		kit.Visit{Path: "foo", Date: "2024-01-03"},
	)
	seeds := seedsFunc(func(context.Context) ([]string, error) {
		return []string{"never-visited", "bar", "bar"}, nil
	})
	want, _ := run(t, newService(t, testOptions(t, domain.StrategySequential, 1), nil), content)

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			got, st := run(t, newService(t, testOptions(t, s, 2), seeds), content)
			assert.Equal(t, want, got)
			assert.Equal(t, 2, st.Seeded)
			assert.NotContains(t, got, "never-visited")
		})
	}
}

func TestRun_CatalogFailure(t *testing.T) {
	t.Parallel()

	seeds := seedsFunc(func(context.Context) ([]string, error) { return nil, errors.New("catalog down") })
	svc := newService(t, testOptions(t, domain.StrategyDense, 2), seeds)
	out := filepath.Join(t.TempDir(), "report.json")

	_, err := svc.Run(context.Background(), domain.Job{
		Input:  kit.WriteFile(t, "visits.csv", kit.VisitLines(blog, kit.Visit{Path: "a", Date: "2024-01-01"})),
		Output: out,
	})
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeCatalog, perr.CodeOf(err))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			svc := newService(t, testOptions(t, s, 2), nil)
			out := filepath.Join(t.TempDir(), "report.json")
			_, err := svc.Run(ctx, domain.Job{
				Input:  kit.WriteFile(t, "visits.csv", kit.VisitLines(blog, kit.Visit{Path: "a", Date: "2024-01-01"})),
				Output: out,
			})
			require.Error(t, err)
			assert.Equal(t, perr.ErrorCodeCanceled, perr.CodeOf(err))
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRun_BadJob(t *testing.T) {
	t.Parallel()

	svc := newService(t, testOptions(t, domain.StrategyDense, 1), nil)
	_, err := svc.Run(context.Background(), domain.Job{Input: "in.csv"})
	assert.Equal(t, perr.ErrorCodeInvalidArgument, perr.CodeOf(err))

	_, err = svc.Run(context.Background(), domain.Job{
		Input:  filepath.Join(t.TempDir(), "missing.csv"),
		Output: filepath.Join(t.TempDir(), "out.json"),
	})
	assert.Equal(t, perr.ErrorCodeIO, perr.CodeOf(err))
}

func TestNew_RejectsBadOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		tweak func(*domain.Options)
		field string
	}{
		{"buckets", func(o *domain.Options) { o.Buckets = 12 }, "BUCKETS"},
		{"workers", func(o *domain.Options) { o.Workers = 0 }, "WORKERS"},
		{"years", func(o *domain.Options) { o.YearTo = o.YearFrom - 1 }, "YEAR_TO"},
		{"strategy", func(o *domain.Options) { o.Strategy = "magic" }, "STRATEGY"},
		{"final line", func(o *domain.Options) { o.FinalLine = "keep" }, "FINAL_LINE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := domain.Defaults()
			tc.tweak(&o)
			_, err := New(o, nil)
			require.Error(t, err)
			assert.Equal(t, perr.ErrorCodeValidation, perr.CodeOf(err))
			fe, ok := perr.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.field, fe.Field())
		})
	}
}

func TestNew_DefaultsAreValid(t *testing.T) {
	t.Parallel()

	svc, err := New(domain.Defaults(), nil)
	require.NoError(t, err)
	assert.Equal(t, dictionary.Horizon{From: 2020, To: 2026}, svc.horizon)
	assert.Equal(t, domain.StrategyDense, svc.Options().Strategy)
}
