package main

import (
	"bytes"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/poiesic/recall/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 16

// run executes one command line against a database in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{loader: mock.NewMockLoader(testDim), out: &out}

	argv := append([]string{"recall", "--log-level", "error", "--db", dir, "--dimension", "16"}, args...)
	err := a.cli().Run(argv)
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	a := &app{out: &bytes.Buffer{}}
	err := a.cli().Run([]string{"recall", "--log-level", "loud", "show", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestAddSearchShow(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	out, err := run(t, dir, "add", "--title", "Saturday", "--tag", "outdoors", "--date", "2024-06-01",
		"I love hiking in the mountains")
	require.NoError(t, err)
	assert.Contains(t, out, "Added entry 1")

	out, err = run(t, dir, "add", "Team meeting about the hiking trip budget")
	require.NoError(t, err)
	assert.Contains(t, out, "Added entry 2")

	t.Run("search", func(t *testing.T) {
		out, err := run(t, dir, "search", "--threshold", "-1", "--limit", "5", "hiking")
		require.NoError(t, err)
		assert.Contains(t, out, "1. [")
		assert.Contains(t, out, "2. [")
		assert.Contains(t, out, "hiking")
	})

	t.Run("search with no matches", func(t *testing.T) {
		out, err := run(t, dir, "search", "--threshold", "1", "zzz")
		require.NoError(t, err)
		assert.Contains(t, out, "No matching entries")
	})

	t.Run("show by id", func(t *testing.T) {
		out, err := run(t, dir, "show", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "#1 2024-06-01")
		assert.Contains(t, out, "Saturday [outdoors]")
		assert.Contains(t, out, "I love hiking in the mountains")
		assert.NotContains(t, out, "not embedded")
	})

	t.Run("show by tag", func(t *testing.T) {
		out, err := run(t, dir, "show", "--tag", "OUTDOORS")
		require.NoError(t, err)
		assert.Contains(t, out, "#1 ")
		assert.NotContains(t, out, "#2 ")
	})

	t.Run("show recent", func(t *testing.T) {
		out, err := run(t, dir, "show", "--recent", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "#2 ")
		assert.NotContains(t, out, "#1 ")
	})

	t.Run("reembed", func(t *testing.T) {
		out, err := run(t, dir, "reembed", "--retry-delay", "1ms")
		require.NoError(t, err)
		assert.Contains(t, out, "Reembedded 2 of 2 entries")
	})
}

func TestCommandValidation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"add without text", []string{"add"}, "entry text is required"},
		{"add with bad date", []string{"add", "--date", "yesterday", "text"}, "invalid date"},
		{"search without query", []string{"search", " "}, "search query is required"},
		{"show without selector", []string{"show"}, "--recent or --tag is required"},
		{"show with bad id", []string{"show", "abc"}, "invalid entry id"},
		{"reembed batch size", []string{"reembed", "--batch-size", "0"}, "batch-size must be greater than 0"},
		{"reembed report interval", []string{"reembed", "--report-interval", "0"}, "report-interval must be greater than 0"},
		{"reembed retries", []string{"reembed", "--max-retries", "0"}, "max-retries must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	_, err := run(t, dir, "--dimension", "0", "show", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dimension")
}

func TestParseDate(t *testing.T) {
	ts, err := parseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local).UTC(), ts)

	ts, err = parseDate("2024-06-01T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), ts)

	_, err = parseDate("06/01/2024")
	assert.Error(t, err)
}

func TestReembedStopsOnInterruptAndTerm(t *testing.T) {
	assert.ElementsMatch(t, []os.Signal{os.Interrupt, syscall.SIGTERM}, stopSignals)
}
