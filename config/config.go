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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/embedding"
	"github.com/poiesic/recall/search"
	"gopkg.in/yaml.v3"
)

// Config is the complete recall configuration.
type Config struct {
	AI        *ai.Config      `yaml:"ai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Database  DatabaseConfig  `yaml:"database"`
}

// EmbeddingConfig tunes the embedding service.
type EmbeddingConfig struct {
	PoolSize         int           `yaml:"pool_size"` // 0 uses runtime.NumCPU()
	CacheSize        int           `yaml:"cache_size"`
	BatchSize        int           `yaml:"batch_size"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`
}

// SearchConfig holds the default search options.
type SearchConfig struct {
	Limit                  int     `yaml:"limit"`
	Threshold              float64 `yaml:"threshold"`
	SnippetWindow          int     `yaml:"snippet_window"`
	core.HybridScoreParams `yaml:",inline"`
}

// DatabaseConfig locates the entry store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultDatabasePath returns ~/.recall/db, or a relative path when the
// home directory is unknown.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".recall", "db")
	}
	return filepath.Join(home, ".recall", "db")
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := search.DefaultSearchOptions()
	return &Config{
		AI: ai.DefaultConfig(),
		Embedding: EmbeddingConfig{
			CacheSize:        embedding.DefaultCacheSize,
			BatchSize:        embedding.DefaultBatchSize,
			InferenceTimeout: embedding.DefaultInferenceTimeout,
		},
		Search: SearchConfig{
			Limit:             opts.Limit,
			Threshold:         opts.Threshold,
			SnippetWindow:     opts.SnippetWindow,
			HybridScoreParams: opts.Params,
		},
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
	}
}

// Load reads a YAML configuration file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.AI == nil {
		cfg.AI = ai.DefaultConfig()
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)

	return cfg, nil
}

// Validate checks every section. The AI section is normalized as a side effect.
func (c *Config) Validate() error {
	if c.AI == nil {
		return fmt.Errorf("%w: ai section missing", ErrInvalidConfig)
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Search.Threshold < -1 || c.Search.Threshold > 1 {
		return fmt.Errorf("%w: search threshold %v outside [-1, 1]", ErrInvalidConfig, c.Search.Threshold)
	}
	if c.Search.ExactMatchBoost < 0 || c.Search.PartialMatchBoost < 0 {
		return fmt.Errorf("%w: match boosts cannot be negative", ErrInvalidConfig)
	}
	if c.Embedding.InferenceTimeout < 0 {
		return fmt.Errorf("%w: negative inference timeout", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database path required", ErrInvalidConfig)
	}
	return nil
}

// SearchOptions converts the search section.
func (c *Config) SearchOptions() search.SearchOptions {
	return search.SearchOptions{
		Limit:         c.Search.Limit,
		Threshold:     c.Search.Threshold,
		SnippetWindow: c.Search.SnippetWindow,
		Params:        c.Search.HybridScoreParams,
	}
}

// EmbeddingOptions converts the embedding section. Zero values keep the
// service defaults.
func (c *Config) EmbeddingOptions() []embedding.Option {
	var opts []embedding.Option
	if c.Embedding.PoolSize > 0 {
		opts = append(opts, embedding.WithPoolSize(c.Embedding.PoolSize))
	}
	if c.Embedding.CacheSize > 0 {
		opts = append(opts, embedding.WithCacheSize(c.Embedding.CacheSize))
	}
	if c.Embedding.BatchSize > 0 {
		opts = append(opts, embedding.WithBatchSize(c.Embedding.BatchSize))
	}
	if c.Embedding.InferenceTimeout > 0 {
		opts = append(opts, embedding.WithInferenceTimeout(c.Embedding.InferenceTimeout))
	}
	return opts
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
