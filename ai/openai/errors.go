package openai

import "errors"

var (
	// ErrConfigRequired is returned when a loader has no configuration.
	ErrConfigRequired = errors.New("ai config required")

	// ErrEmptyResponse is returned when the service answers without vectors.
	ErrEmptyResponse = errors.New("embedding service returned no vectors")

	// ErrResultMismatch is returned when a batch answer has the wrong cardinality.
	ErrResultMismatch = errors.New("embedding result mismatch")

	// ErrDimensionMismatch is returned when the model width differs from the configured one.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
