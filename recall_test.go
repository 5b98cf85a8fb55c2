package recall

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/config"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/embedding"
	"github.com/poiesic/recall/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 16

func testOptions(loader ai.EncoderLoader) []DatabaseOption {
	return []DatabaseOption{
		WithAIConfig(ai.NewConfig(ai.WithDimension(testDim))),
		WithLoader(loader),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
}

func openTestDatabase(t *testing.T, opts ...DatabaseOption) *Database {
	t.Helper()
	opts = append(testOptions(mock.NewMockLoader(testDim)), opts...)
	db, err := NewDatabase("", append(opts, WithInMemory())...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(dir, testOptions(mock.NewMockLoader(testDim))...)
		require.NoError(t, err)
		defer db.Close()

		assert.NotNil(t, db.Repository())
		assert.NotNil(t, db.Embeddings())
		assert.Equal(t, embedding.StateUninitialized, db.Embeddings().State(), "model loads lazily")
		assert.DirExists(t, dir)
	})

	t.Run("default loader", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithLogger(slog.New(slog.DiscardHandler)))
		require.NoError(t, err)
		defer db.Close()
		assert.Equal(t, core.DefaultDimension, db.Embeddings().Dimension())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0o644))

		db, err := NewDatabase(file, testOptions(mock.NewMockLoader(testDim))...)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("invalid dimension", func(t *testing.T) {
		_, err := NewDatabase("", WithInMemory(), WithAIConfig(ai.NewConfig(ai.WithDimension(0))))
		assert.Error(t, err)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase("", append(testOptions(mock.NewMockLoader(testDim)), WithInMemory())...)
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Equal(t, embedding.StateFailed, db.Embeddings().State())
}

func TestDatabase_IngestAndSearch(t *testing.T) {
	ctx := context.Background()
	db := openTestDatabase(t)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Ingest(ctx, []*core.Entry{
		{Title: "Saturday", Contents: "I love hiking in the mountains"},
		{Contents: "Team meeting about the hiking trip budget"},
		{Contents: "Grocery list: apples, coffee"},
	}, nil)
	require.NoError(t, err)
	pipeline.Wait()

	embedded, err := db.Repository().GetEmbeddedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, embedded, 3)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)

	opts := search.DefaultSearchOptions()
	opts.Threshold = -1
	opts.Limit = 2
	results, err := searcher.SearchEntries(ctx, "hiking", &opts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotNil(t, r.Entry())
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
	assert.True(t, db.Embeddings().Ready())
}

func TestDatabase_Reembed(t *testing.T) {
	ctx := context.Background()
	db := openTestDatabase(t)

	_, err := db.Repository().AddEntries(ctx,
		&core.Entry{Contents: "one"},
		&core.Entry{Contents: "two"},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	result, err := db.NewReembedder(nil, &buf).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Embedded)

	embedded, err := db.Repository().GetEmbeddedEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, embedded, 2)
}

func TestDatabase_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Dimension = testDim
	cfg.Search.Limit = 3

	reg := prometheus.NewRegistry()
	db := openTestDatabase(t, FromConfig(cfg), WithLoader(mock.NewMockLoader(testDim)), WithMetricsRegisterer(reg))

	assert.Equal(t, testDim, db.Embeddings().Dimension())

	_, err := db.Embeddings().EncodeOne(context.Background(), "hello", false)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "recall_embedding_encoder_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

}
