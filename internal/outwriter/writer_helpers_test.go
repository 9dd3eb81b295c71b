package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name: "pattern summary",
			data: schema.PatternSummary{Frequency: 3, TotalOccurrences: 5, Significance: 3, Examples: []string{"components/A.vue"}},
			expected: `{
  "frequency": 3,
  "totalOccurrences": 5,
  "significance": 3,
  "examples": [
    "components/A.vue"
  ]
}
`,
		},
		{
			name:     "categories",
			data:     []schema.Category{schema.ComponentCategory, schema.APICategory},
			expected: "[\n  \"component\",\n  \"api\"\n]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeJSON(&buf, tt.data))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, make(chan int))
	assert.ErrorContains(t, err, "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	rows := [][]string{
		{"component", "componentPatterns.sharedProps", "4"},
		{"api", "apiPatterns.authChecks", "3, with comma"},
	}
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"category", "pattern", "frequency"}, func(w *csv.Writer) error {
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "category,pattern,frequency\n"+
		"component,componentPatterns.sharedProps,4\n"+
		"api,apiPatterns.authChecks,\"3, with comma\"\n", buf.String())

	buf.Reset()
	require.NoError(t, writeCSVWithHeader(&buf, []string{"metric"}, func(*csv.Writer) error { return nil }))
	assert.Equal(t, "metric\n", buf.String(), "header is written without rows")
}

func TestWriteCSVWithHeaderError(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(w io.Writer) error {
			called = true
			assert.Same(t, os.Stdout, w)
			return nil
		}, "Wrote summary")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		err := writeWithFile(path, func(w io.Writer) error {
			return writeJSON(w, schema.ScanStats{TotalFiles: 2})
		}, "Wrote JSON")
		require.NoError(t, err)

		var stats schema.ScanStats
		require.NoError(t, ReadJSONFile(path, &stats))
		assert.Equal(t, 2, stats.TotalFiles)
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.csv")
		err := writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote CSV")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "state")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		err := writeWithFile(filepath.Join(blocker, "report.txt"), func(io.Writer) error { return nil }, "Wrote summary")
		assert.Error(t, err)
	})
}

func TestPalettePlain(t *testing.T) {
	p := newPalette(false)
	assert.Equal(t, "ok", p.ok("ok"))
	assert.Equal(t, "bad", p.bad("bad"))
}

func TestLineWriterKeepsFirstError(t *testing.T) {
	lw := &lineWriter{w: failingWriter{}}
	lw.printf("first %d", 1)
	lw.printf("second")
	assert.ErrorIs(t, lw.err, assert.AnError)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }
