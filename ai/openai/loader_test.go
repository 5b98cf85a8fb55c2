package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/recall/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer fakes the /v1/embeddings endpoint of an OpenAI-compatible service.
// Every input gets a vector of the given width whose first component is the input length.
func embeddingServer(t *testing.T, width int, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(req.Input))
		for i, in := range req.Input {
			vec := make([]float32, width)
			vec[0] = float32(len(in))
			data[i] = datum{Object: "embedding", Embedding: vec, Index: i}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestLoader_Load(t *testing.T) {
	var requests atomic.Int32
	server := embeddingServer(t, 4, &requests)
	defer server.Close()

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(server.URL),
		ai.WithEmbeddingModel("test-model"),
		ai.WithDimension(4),
	)

	encoder, err := NewLoader(cfg).Load(context.Background(), "", "")
	require.NoError(t, err)
	defer encoder.Close()

	assert.Equal(t, 4, encoder.Dimension())
	assert.Equal(t, int32(1), requests.Load(), "load should query the model exactly once")

	t.Run("encode single text", func(t *testing.T) {
		vec, err := encoder.Encode(context.Background(), "hello")
		require.NoError(t, err)
		require.Len(t, vec, 4)
		assert.Equal(t, float32(5), vec[0])
	})

	t.Run("encode batch keeps order", func(t *testing.T) {
		vecs, err := encoder.EncodeBatch(context.Background(), []string{"a", "abc", "ab"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
		assert.Equal(t, float32(1), vecs[0][0])
		assert.Equal(t, float32(3), vecs[1][0])
		assert.Equal(t, float32(2), vecs[2][0])
	})

	t.Run("newlines are preserved", func(t *testing.T) {
		vec, err := encoder.Encode(context.Background(), "a\nb")
		require.NoError(t, err)
		assert.Equal(t, float32(3), vec[0])
	})
}

func TestLoader_DimensionMismatch(t *testing.T) {
	server := embeddingServer(t, 8, nil)
	defer server.Close()

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(server.URL),
		ai.WithDimension(4),
	)

	_, err := NewLoader(cfg).Load(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLoader_ServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := ai.NewConfig(ai.WithEmbeddingHost(server.URL))

	_, err := NewLoader(cfg).Load(context.Background(), "", "")
	assert.Error(t, err)
}

func TestLoader_InvalidConfig(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrConfigRequired)

	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))
	_, err = NewLoader(cfg).Load(context.Background(), "", "")
	assert.Error(t, err)
}
