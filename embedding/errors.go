package embedding

import "errors"

var (
	// ErrLoaderRequired indicates that no encoder loader was provided.
	ErrLoaderRequired = errors.New("encoder loader required")

	// ErrEncoderInit indicates that the text encoder could not be initialized.
	// It wraps the loader's error and is returned to every caller until Reset.
	ErrEncoderInit = errors.New("encoder initialization failed")

	// ErrDimensionMismatch indicates the loaded encoder produces vectors of the wrong width.
	ErrDimensionMismatch = errors.New("encoder dimension mismatch")

	// ErrInitInProgress indicates Reset was called while the encoder was loading.
	ErrInitInProgress = errors.New("encoder initialization in progress")

	// ErrServiceClosed indicates the service has been closed.
	ErrServiceClosed = errors.New("embedding service closed")
)
