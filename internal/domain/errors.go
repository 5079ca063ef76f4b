package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing signals a required setting that is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrExternalService signals a failure of the embedding provider or the vector store.
	ErrExternalService = errors.New("external service error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = fmt.Errorf("embedding provider error: %w", ErrExternalService)
	// ErrStoreError signals a vector store failure.
	ErrStoreError = fmt.Errorf("vector store error: %w", ErrExternalService)
	// ErrMalformedRecord signals a record or metadata field that is absent or has the wrong type.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrTimeout signals that a polling deadline elapsed.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidRequest signals a query request that cannot be built.
	ErrInvalidRequest = errors.New("invalid request")
)

// MissingFieldError reports a metadata field absent from a stored vector.
type MissingFieldError struct {
	ID    string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %q has no metadata field %q", ErrMalformedRecord.Error(), e.ID, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMalformedRecord }
