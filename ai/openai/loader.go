// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// warmupText is embedded once at load time to verify the model answers and to
// learn the width of its vectors.
const warmupText = "ping"

// Loader implements ai.EncoderLoader using OpenAI-compatible services.
type Loader struct {
	config *ai.Config
	logger *slog.Logger
}

var _ ai.EncoderLoader = (*Loader)(nil)

// NewLoader creates a loader bound to the given configuration.
// The configuration is validated when Load is called.
func NewLoader(config *ai.Config) *Loader {
	return &Loader{
		config: config,
		logger: slog.Default().With("component", "openai-loader"),
	}
}

// Load connects to the embedding service and verifies the model.
// The model and device arguments override the configured values when non-empty.
func (l *Loader) Load(ctx context.Context, model, device string) (ai.TextEncoder, error) {
	if l.config == nil {
		return nil, ErrConfigRequired
	}
	if err := l.config.Validate(); err != nil {
		return nil, err
	}
	if model == "" {
		model = l.config.EmbeddingModel
	}
	if device == "" {
		device = l.config.Device
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(l.config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}

	// Newlines are significant to the model; text is sent exactly as formatted.
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, err
	}

	l.logger.Info("loading embedding model", "model", model, "device", device, "host", l.config.EmbeddingHost)
	sample, err := embedder.EmbedDocuments(ctx, []string{warmupText})
	if err != nil {
		return nil, fmt.Errorf("warm up embedding model %s: %w", model, err)
	}
	if len(sample) == 0 || len(sample[0]) == 0 {
		return nil, fmt.Errorf("warm up embedding model %s: %w", model, ErrEmptyResponse)
	}
	if dim := len(sample[0]); dim != l.config.Dimension {
		return nil, fmt.Errorf("%w: model %s produces %d, configured %d",
			ErrDimensionMismatch, model, dim, l.config.Dimension)
	}

	return &Encoder{
		embedder:  embedder,
		model:     model,
		device:    device,
		dimension: len(sample[0]),
		logger:    l.logger.With("component", "openai-encoder", "model", model),
	}, nil
}
