package badger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		backend, err := OpenBackend("ignored", true)
		require.NoError(t, err)
		defer backend.Close()

		assert.False(t, backend.IsClosed())
		_, statErr := os.Stat("ignored")
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("creates nested directories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "db")
		backend, err := OpenBackend(dir, false)
		require.NoError(t, err)
		defer backend.Close()

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, err := OpenBackend(path, false)
		assert.Error(t, err)
	})
}

func TestBackendLoggerIsTagged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	backend, err := OpenBackend("", true, WithBackendLogger(logger))
	require.NoError(t, err)
	defer backend.Close()

	slogAdapter{logger: backend.logger}.Warningf("value log %d", 7)
	assert.Contains(t, buf.String(), "component=badger")
	assert.Contains(t, buf.String(), "value log 7")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestSequenceIsMonotonic(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("entries")
	require.NoError(t, err)
	defer seq.Release()

	prev, err := seq.Next()
	require.NoError(t, err)
	for range sequenceLease + 5 {
		next, err := seq.Next()
		require.NoError(t, err)
		require.Greater(t, next, prev)
		prev = next
	}
}
