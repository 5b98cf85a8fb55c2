package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/poiesic/recall/ai"
)

// MockEncoder is a test double for ai.TextEncoder.
// It allows custom behavior injection via function fields and is safe for
// concurrent use as long as the function fields are set before sharing it.
type MockEncoder struct {
	// EncodeFunc is called by Encode if set.
	// If nil, uses default deterministic behavior.
	EncodeFunc func(ctx context.Context, text string) ([]float32, error)

	// EncodeBatchFunc is called by EncodeBatch if set.
	// If nil, each text is encoded through Encode.
	EncodeBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dim         int
	encodeCalls atomic.Int64
	batchCalls  atomic.Int64
	closed      atomic.Bool
}

var _ ai.TextEncoder = (*MockEncoder)(nil)

// NewMockEncoder creates a mock encoder producing vectors of width dim.
// Note: Returns concrete type to allow test assertions.
func NewMockEncoder(dim int) *MockEncoder {
	return &MockEncoder{dim: dim}
}

// WithEncodeFunc sets EncodeFunc and returns the encoder for chaining.
func (m *MockEncoder) WithEncodeFunc(fn func(ctx context.Context, text string) ([]float32, error)) *MockEncoder {
	m.EncodeFunc = fn
	return m
}

// WithEncodeBatchFunc sets EncodeBatchFunc and returns the encoder for chaining.
func (m *MockEncoder) WithEncodeBatchFunc(fn func(ctx context.Context, texts []string) ([][]float32, error)) *MockEncoder {
	m.EncodeBatchFunc = fn
	return m
}

// Encode generates a deterministic embedding based on text hash.
func (m *MockEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	m.encodeCalls.Add(1)

	if m.EncodeFunc != nil {
		return m.EncodeFunc(ctx, text)
	}

	return DeterministicVector(text, m.dim), nil
}

// EncodeBatch generates embeddings for multiple texts.
func (m *MockEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)

	if m.EncodeBatchFunc != nil {
		return m.EncodeBatchFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		var err error
		if m.EncodeFunc != nil {
			vectors[i], err = m.EncodeFunc(ctx, text)
			if err != nil {
				return nil, err
			}
			continue
		}
		vectors[i] = DeterministicVector(text, m.dim)
	}
	return vectors, nil
}

// Dimension returns the configured vector width.
func (m *MockEncoder) Dimension() int {
	return m.dim
}

// Close marks the encoder as closed.
func (m *MockEncoder) Close() error {
	m.closed.Store(true)
	return nil
}

// EncodeCalls returns the number of Encode calls.
func (m *MockEncoder) EncodeCalls() int {
	return int(m.encodeCalls.Load())
}

// BatchCalls returns the number of EncodeBatch calls.
func (m *MockEncoder) BatchCalls() int {
	return int(m.batchCalls.Load())
}

// CallCount returns the number of times any encoding method was called.
func (m *MockEncoder) CallCount() int {
	return m.EncodeCalls() + m.BatchCalls()
}

// Closed reports whether Close was called.
func (m *MockEncoder) Closed() bool {
	return m.closed.Load()
}

// DeterministicVector creates a deterministic unit vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
