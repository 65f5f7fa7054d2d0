package contracts

import "errors"

var (
	// ErrTickerNotFound: no price history after every retry. Terminal for the ticker.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrEmptyHistory: the provider answered but returned no usable bars
	ErrEmptyHistory = errors.New("empty price history")

	// ErrRateLimited: the provider refused with HTTP 429
	ErrRateLimited = errors.New("provider rate limited")

	// ErrInvalidCode: the provider does not know the symbol (HTTP 404)
	ErrInvalidCode = errors.New("invalid ticker code")

	// ErrPartialFundamentals: prices are present but fundamentals are missing
	ErrPartialFundamentals = errors.New("fundamentals unavailable")

	// ErrCacheMiss: no live bundle under the key
	ErrCacheMiss = errors.New("cache miss")
)
