package domain

import "errors"

var (
	// ErrPageFetch is returned when the product page cannot be retrieved
	ErrPageFetch = errors.New("product page fetch failed")

	// ErrVendorAPI is returned when a vendor product API request fails
	ErrVendorAPI = errors.New("vendor API request failed")

	// ErrNoProductID is returned when no product identifier can be derived from a URL
	ErrNoProductID = errors.New("could not extract product ID from URL")

	// ErrOracleFailure is returned when the oracle call fails or its reply is unparseable
	ErrOracleFailure = errors.New("oracle analysis failed")

	// ErrOracleUnconfigured is returned when no oracle credential is configured
	ErrOracleUnconfigured = errors.New("oracle API key not configured")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
