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

package recall

import (
	"io"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/config"
	"github.com/poiesic/recall/embedding"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/reembed"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// Database ties the entry store to the embedding service.
type Database struct {
	backend        *badger.Backend
	repo           *badger.EntryRepository
	service        *embedding.Service
	searchDefaults search.SearchOptions
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig       *ai.Config
	loader         ai.EncoderLoader
	inMemory       bool
	embeddingOpts  []embedding.Option
	searchDefaults search.SearchOptions
	registerer     prometheus.Registerer
	logger         *slog.Logger
}

// WithAIConfig sets the encoder configuration. Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithLoader replaces the OpenAI-compatible loader.
func WithLoader(loader ai.EncoderLoader) DatabaseOption {
	return func(o *databaseOptions) {
		o.loader = loader
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithEmbeddingOptions passes options through to the embedding service.
func WithEmbeddingOptions(opts ...embedding.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.embeddingOpts = append(o.embeddingOpts, opts...)
	}
}

// WithSearchDefaults sets the options searchers use when none are given.
func WithSearchDefaults(opts search.SearchOptions) DatabaseOption {
	return func(o *databaseOptions) {
		o.searchDefaults = opts
	}
}

// WithMetricsRegisterer registers the embedding service metrics with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) DatabaseOption {
	return func(o *databaseOptions) {
		o.registerer = reg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// FromConfig applies the ai, embedding and search sections of cfg.
func FromConfig(cfg *config.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg.AI
		o.embeddingOpts = append(o.embeddingOpts, cfg.EmbeddingOptions()...)
		o.searchDefaults = cfg.SearchOptions()
	}
}

// NewDatabase opens the entry store at filePath and prepares the embedding
// service. The model itself is loaded on first use.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig:       ai.DefaultConfig(),
		searchDefaults: search.DefaultSearchOptions(),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.loader == nil {
		options.loader = openai.NewLoader(options.aiConfig)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithBackendLogger(options.logger))
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embeddingOpts := append([]embedding.Option{embedding.WithLogger(options.logger)}, options.embeddingOpts...)
	if options.registerer != nil {
		metrics := embedding.NewMetrics("recall")
		if err := metrics.Register(options.registerer); err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
		embeddingOpts = append(embeddingOpts, embedding.WithMetrics(metrics))
	}

	service, err := embedding.NewService(options.loader, options.aiConfig, embeddingOpts...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:        backend,
		repo:           repo,
		service:        service,
		searchDefaults: options.searchDefaults,
		logger:         options.logger,
	}, nil
}

// Close shuts down the embedding service and the store.
func (db *Database) Close() error {
	if err := db.service.Close(); err != nil {
		db.logger.Error("error closing embedding service", "err", err)
	}

	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing entry repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Repository returns the entry store.
func (db *Database) Repository() storage.EntryRepository {
	return db.repo
}

// Embeddings returns the shared embedding service.
func (db *Database) Embeddings() *embedding.Service {
	return db.service
}

// NewSearcher creates a searcher over the stored entries.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	defaults := []search.Option{
		search.WithRepository(db.repo),
		search.WithDefaults(db.searchDefaults),
		search.WithLogger(db.logger),
	}
	return search.NewSearcher(db.service, append(defaults, opts...)...)
}

// NewIngestionPipeline creates a pipeline that stores and embeds entries.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewPipeline(db.repo, db.service, opts...)
}

// NewReembedder creates a reembedder writing progress to w.
func (db *Database) NewReembedder(cfg *reembed.Config, w io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.repo, db.service, cfg, w)
}
