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

package ai

import (
	"errors"
	"strings"
)

// DefaultQueryInstruction is the retrieval instruction prepended to query text.
// Document text is embedded verbatim; only queries carry the instruction.
const DefaultQueryInstruction = "Instruct: Given a journal search query, retrieve relevant journal entries that answer the query\nQuery: "

// Config holds configuration for the text encoder.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string `yaml:"embedding_host"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string `yaml:"embedding_model"`

	// Device names the compute device the model runs on ("cpu", "cuda", "mps").
	// Remote encoders record it for diagnostics only.
	Device string `yaml:"device"`

	// Dimension is the expected vector width. Loading fails if the model
	// produces vectors of a different width.
	// Default: 384
	Dimension int `yaml:"dimension"`

	// QueryInstruction is prepended to query text before encoding.
	// Default: DefaultQueryInstruction
	QueryInstruction string `yaml:"query_instruction"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDevice sets the compute device.
func WithDevice(device string) ConfigOption {
	return func(c *Config) {
		c.Device = device
	}
}

// WithDimension sets the expected vector width.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithQueryInstruction sets the instruction template prepended to queries.
func WithQueryInstruction(instruction string) ConfigOption {
	return func(c *Config) {
		c.QueryInstruction = instruction
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:    "http://localhost:11434/v1",
		EmbeddingModel:   "all-minilm",
		Device:           "cpu",
		Dimension:        384,
		QueryInstruction: DefaultQueryInstruction,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	    WithDimension(768),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.Device == "" {
		c.Device = "cpu"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension must be greater than 0")
	}
	return nil
}

// FormatText applies the role-specific formatting for the encoder.
// Query text is wrapped in the retrieval instruction, document text is unchanged.
// Text must already be trimmed.
func (c *Config) FormatText(text string, isQuery bool) string {
	if !isQuery {
		return text
	}
	return c.QueryInstruction + text
}
