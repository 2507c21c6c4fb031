package catalog

import "errors"

var (
	// ErrInvalidName is returned when a product name is missing
	ErrInvalidName = errors.New("product name is required")

	// ErrNegativePrice is returned when a price is negative
	ErrNegativePrice = errors.New("price must not be negative")

	// ErrNegativeStock is returned when a stock count is negative
	ErrNegativeStock = errors.New("stock must not be negative")

	// ErrProductNotFound is returned when a product lookup misses
	ErrProductNotFound = errors.New("product not found")

	// ErrNoMatch is returned when a free-text query resolves to nothing
	ErrNoMatch = errors.New("no catalog match")

	// ErrAmbiguousMatch is returned when a query matches more than one
	// product and the caller must ask for clarification
	ErrAmbiguousMatch = errors.New("ambiguous catalog match")
)
