package domain

import "errors"

var (
	// ErrProductNotFound is returned when no provider can resolve a barcode
	ErrProductNotFound = errors.New("product not found by any provider")

	// ErrInvalidBarcode is returned when a barcode fails validation
	ErrInvalidBarcode = errors.New("invalid barcode")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProviderFailure is returned when a provider API request fails
	ErrProviderFailure = errors.New("provider API request failed")

	// ErrProviderTimeout is returned when a single provider call times out
	ErrProviderTimeout = errors.New("provider request timed out")

	// ErrResolveTimeout is returned when the overall resolution deadline is
	// exceeded. Distinct from ErrProductNotFound: the provider list was never
	// exhausted, so the product may still exist upstream.
	ErrResolveTimeout = errors.New("product resolution deadline exceeded")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrPersistence is returned when a cache or score store read/write fails
	ErrPersistence = errors.New("persistence failure")

	// ErrScoreComputation is returned for a malformed rule catalog or an
	// out-of-range post-normalization score
	ErrScoreComputation = errors.New("score computation failure")

	// ErrProfileNotFound is returned when no stored profile exists for a user
	ErrProfileNotFound = errors.New("user profile not found")
)
