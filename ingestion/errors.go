package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when an entry repository is not provided.
	ErrRepositoryRequired = errors.New("entry repository required")

	// ErrEncoderRequired is returned when a document encoder is not provided.
	ErrEncoderRequired = errors.New("document encoder required")
)
