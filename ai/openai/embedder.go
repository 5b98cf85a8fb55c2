package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/tmc/langchaingo/embeddings"
)

// Encoder implements ai.TextEncoder using OpenAI-compatible embedding APIs.
type Encoder struct {
	embedder  embeddings.Embedder
	model     string
	device    string
	dimension int
	logger    *slog.Logger
}

var _ ai.TextEncoder = (*Encoder)(nil)

// Encode generates a vector embedding for a single text string.
func (e *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		return nil, ErrEmptyResponse
	}

	return vectors[0], nil
}

// EncodeBatch generates vector embeddings for multiple text strings in a batch.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrResultMismatch, len(texts), len(vectors))
	}

	return vectors, nil
}

// Dimension returns the vector width reported by the model at load time.
func (e *Encoder) Dimension() int {
	return e.dimension
}

// Close releases resources held by the encoder.
// Currently a no-op as the underlying HTTP client doesn't require explicit cleanup.
func (e *Encoder) Close() error {
	e.logger.Debug("closing encoder", "model", e.model, "device", e.device)
	return nil
}
