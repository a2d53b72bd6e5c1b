package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product id is not in the cart
	ErrProductNotFound = errors.New("product not found in cart")

	// ErrNotEnoughProducts is returned when a comparison is requested with fewer than two products
	ErrNotEnoughProducts = errors.New("please select at least 2 products to compare")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateSourceFailure is returned when the exchange-rate source cannot be read
	ErrRateSourceFailure = errors.New("exchange rate request failed")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrDocumentUnavailable is returned when page markup cannot be loaded or fetched
	ErrDocumentUnavailable = errors.New("page document unavailable")

	// ErrAIUnavailable is returned when a generative capability cannot be used
	ErrAIUnavailable = errors.New("AI capability unavailable")

	// ErrEmptyResponse is returned when a generative model produced no usable text
	ErrEmptyResponse = errors.New("empty model response")
)
