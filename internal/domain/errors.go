package domain

import "errors"

var (
	// ErrImageDecode is returned when a receipt image cannot be read or decoded
	ErrImageDecode = errors.New("receipt image could not be decoded")

	// ErrOCREngine is returned when the OCR engine fails to produce text
	ErrOCREngine = errors.New("OCR engine failure")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogInvalid is returned when the food catalog document cannot be loaded
	ErrCatalogInvalid = errors.New("food catalog invalid")
)
