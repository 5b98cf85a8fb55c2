package reembed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/embedding"
	"github.com/poiesic/recall/storage"
)

// Encoder embeds entry text in bulk. *embedding.Service implements it.
type Encoder interface {
	EncodeBatch(ctx context.Context, texts []string, batchSize int, isQuery bool) ([][]float32, error)
}

// BatchProcessor handles embedding generation for batches of entries.
type BatchProcessor struct {
	repo           storage.EntryRepository
	encoder        Encoder
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each encoder call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.EntryRepository, encoder Encoder, batchSize, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		encoder:        encoder,
		batchSize:      batchSize,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates document embeddings for a batch of entries and updates
// them in the database. Vectors are normalized before they are stored.
// An entry whose vector comes back all zero has its vector cleared.
// Returns the number of entries that received a usable vector.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.SearchText()
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.encoder.EncodeBatch(ctx, texts, bp.batchSize, false)
		if errors.Is(err, embedding.ErrEncoderInit) || errors.Is(err, embedding.ErrServiceClosed) {
			return Permanent(err)
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(vectors))
	}

	embedded := 0
	for i, entry := range entries {
		vec := NormalizeVector(vectors[i])
		if isZero(vec) {
			entry.Vector = nil
			continue
		}
		entry.Vector = vec
		embedded++
	}

	if _, err := bp.repo.UpdateEntries(ctx, entries...); err != nil {
		return 0, fmt.Errorf("failed to update entries: %w", err)
	}

	return embedded, nil
}
