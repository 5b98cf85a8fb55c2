package embedding

import (
	"errors"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultBatchSize is the number of texts sent to the encoder per call.
	DefaultBatchSize = 32

	// DefaultCacheSize is the number of vectors kept in the LRU cache.
	DefaultCacheSize = 10000

	// DefaultInferenceTimeout bounds a single encoder call.
	DefaultInferenceTimeout = 30 * time.Second
)

// Option configures a Service.
type Option func(*Service) error

// WithPoolSize sets the size of the worker pool that runs model loading and inference.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.replacePool(pool, true)
		return nil
	}
}

// WithPool runs work on a caller-owned pool. The service never releases it.
func WithPool(pool *ants.Pool) Option {
	return func(s *Service) error {
		if pool == nil {
			return errors.New("pool must not be nil")
		}
		s.replacePool(pool, false)
		return nil
	}
}

// WithCacheSize sets the number of vectors kept in the LRU cache.
func WithCacheSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			return errors.New("cache size must be positive")
		}
		s.cacheSize = size
		return nil
	}
}

// WithBatchSize sets the default number of texts per encoder call.
func WithBatchSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			return errors.New("batch size must be positive")
		}
		s.batchSize = size
		return nil
	}
}

// WithInferenceTimeout bounds each encoder call. A call that exceeds it
// degrades to zero vectors for the texts involved.
func WithInferenceTimeout(timeout time.Duration) Option {
	return func(s *Service) error {
		if timeout <= 0 {
			return errors.New("inference timeout must be positive")
		}
		s.inferenceTimeout = timeout
		return nil
	}
}

// WithMetrics records cache, load and inference metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) error {
		s.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}
