package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCatalog is returned when a catalog has no regions.
	ErrEmptyCatalog = errors.New("catalog is empty")

	// ErrRegionNotFound is returned when a region ID is not in the catalog.
	ErrRegionNotFound = errors.New("region not found")

	// ErrRenderUnavailable is returned when a chart or map renderer cannot produce output.
	ErrRenderUnavailable = errors.New("render collaborator unavailable")
)

// ProviderError wraps a failed fetch from an external data provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err for the named provider.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}
