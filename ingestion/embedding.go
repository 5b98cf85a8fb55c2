package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// embeddingProcessor generates document embeddings for entries.
type embeddingProcessor struct {
	repository storage.EntryRepository
	encoder    DocumentEncoder
	batchSize  int
	logger     *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(repository storage.EntryRepository, encoder DocumentEncoder, batchSize int, logger *slog.Logger) (processor, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if encoder == nil {
		return nil, ErrEncoderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		repository: repository,
		encoder:    encoder,
		batchSize:  batchSize,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified entries.
// Entries whose vector comes back all zero are left unembedded.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	ep.logger.Info("processing entries for embeddings", "entries", len(ids))

	ids = slices.Clone(ids)
	slices.Sort(ids)

	entries, err := ep.repository.GetEntries(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving entries", "err", err)
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.SearchText()
	}

	ep.logger.Debug("generating embeddings for entries", "entries", len(texts))
	vectors, err := ep.encoder.EncodeBatch(ctx, texts, ep.batchSize, false)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(vectors) != len(entries) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(entries), len(vectors))
	}

	embedded := make([]*core.Entry, 0, len(entries))
	for i, entry := range entries {
		if isZero(vectors[i]) {
			continue
		}
		entry.Vector = vectors[i]
		embedded = append(embedded, entry)
	}
	if skipped := len(entries) - len(embedded); skipped > 0 {
		ep.logger.Warn("entries left without embeddings", "skipped", skipped)
	}
	if len(embedded) == 0 {
		return nil
	}

	_, err = ep.repository.UpdateEntries(ctx, embedded...)
	return err
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
