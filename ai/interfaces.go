package ai

import "context"

// TextEncoder turns text into fixed-width embedding vectors.
// An encoder is bound to one model, one device and one dimension for its
// whole lifetime. Implementations must be thread-safe for concurrent use.
type TextEncoder interface {
	// Encode generates a vector for a single, already formatted text.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch generates vectors for multiple texts in one call.
	// The returned slice contains vectors in the same order as the input texts.
	// Returns an error if the batch as a whole fails.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the width of every vector this encoder produces.
	Dimension() int

	// Close releases resources held by the encoder.
	Close() error
}

// EncoderLoader creates TextEncoder instances.
// Loading is expensive (model download, weights, warm-up) and is expected to
// happen at most once per process; see embedding.Service.
type EncoderLoader interface {
	// Load initializes the model identified by model on the given device.
	// A returned error is fatal: no embedding can be produced without an encoder.
	Load(ctx context.Context, model, device string) (TextEncoder, error)
}

// EncoderLoaderFunc adapts an ordinary function to the EncoderLoader interface.
type EncoderLoaderFunc func(ctx context.Context, model, device string) (TextEncoder, error)

// Load calls f(ctx, model, device).
func (f EncoderLoaderFunc) Load(ctx context.Context, model, device string) (TextEncoder, error) {
	return f(ctx, model, device)
}
