package linereader

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	text string
	off  int64
}

func drain(t *testing.T, r *Reader) []line {
	t.Helper()
	var out []line
	for {
		b, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, line{text: string(b), off: r.Offset()})
	}
}

func TestNext_EveryChunkSize(t *testing.T) {
	t.Parallel()

	input := "alpha,1\nbeta,22\r\n\ngamma-is-longer-than-a-chunk,333\ndelta"
	want := []line{
		{"alpha,1", 0},
		{"beta,22", 8},
		{"", 17},
		{"gamma-is-longer-than-a-chunk,333", 18},
		{"delta", 51},
	}
	for chunk := 1; chunk <= len(input)+1; chunk++ {
		r := New(strings.NewReader(input), Options{ChunkSize: chunk})
		got := drain(t, r)
		require.Equal(t, want, got, "chunk=%d", chunk)
		assert.Equal(t, int64(len(input)), r.Stats().Bytes)
		assert.Equal(t, int64(len(want)), r.Stats().Lines)
	}
}

func TestNext_ShortReads(t *testing.T) {
	t.Parallel()

	input := "a\nbb\nccc\n"
	for _, src := range []io.Reader{
		iotest.OneByteReader(strings.NewReader(input)),
		iotest.HalfReader(strings.NewReader(input)),
		iotest.DataErrReader(strings.NewReader(input)),
	} {
		got := drain(t, New(src, Options{ChunkSize: 4}))
		require.Equal(t, []line{{"a", 0}, {"bb", 2}, {"ccc", 5}}, got)
	}
}

func TestFinalLinePolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		final   FinalLine
		want    []string
		dropped bool
	}{
		{name: "process tail", input: "a\nb", final: FinalProcess, want: []string{"a", "b"}},
		{name: "process tail with cr", input: "a\nb\r", final: FinalProcess, want: []string{"a", "b"}},
		{name: "drop tail", input: "a\nb", final: FinalDrop, want: []string{"a"}, dropped: true},
		{name: "terminated input unaffected", input: "a\nb\n", final: FinalDrop, want: []string{"a", "b"}},
		{name: "empty", input: "", final: FinalProcess},
		{name: "only tail dropped", input: "xyz", final: FinalDrop, dropped: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(strings.NewReader(tc.input), Options{ChunkSize: 2, Final: tc.final})
			var got []string
			for _, l := range drain(t, r) {
				got = append(got, l.text)
			}
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.dropped, r.Stats().Dropped)
		})
	}
}

func TestParseFinalLine(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]FinalLine{"": FinalProcess, "Process": FinalProcess, " drop ": FinalDrop} {
		got, err := ParseFinalLine(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFinalLine("keep")
	require.Error(t, err)
	assert.Equal(t, "drop", FinalDrop.String())
	assert.Equal(t, "process", FinalProcess.String())
}

func TestDiscard_ResumesAtLineStart(t *testing.T) {
	t.Parallel()

	input := "partial-line\nnext,1\nlast,2\n"
	for chunk := 1; chunk <= 8; chunk++ {
		// the source starts 3 bytes into the file
		r := New(strings.NewReader(input[3:]), Options{ChunkSize: chunk, Base: 3})
		skipped, err := r.Discard()
		require.NoError(t, err)
		assert.Equal(t, int64(10), skipped)
		got := drain(t, r)
		require.Equal(t, []line{{"next,1", 13}, {"last,2", 20}}, got, "chunk=%d", chunk)
	}
}

func TestDiscard_NoNewline(t *testing.T) {
	t.Parallel()

	r := New(strings.NewReader("no newline here"), Options{ChunkSize: 4})
	skipped, err := r.Discard()
	require.NoError(t, err)
	assert.Equal(t, int64(15), skipped)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNext_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk gone")
	src := io.MultiReader(strings.NewReader("ok\npart"), iotest.ErrReader(boom))
	r := New(src, Options{ChunkSize: 16})

	b, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(b))

	_, err = r.Next()
	require.ErrorIs(t, err, boom)
	_, err = r.Next()
	require.ErrorIs(t, err, boom)
}

func TestOffset_BeforeFirstLine(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(-1), New(strings.NewReader("x\n"), Options{}).Offset())
}
