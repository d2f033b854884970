package domain

import "github.com/pkg/errors"

var (
	// ErrInsufficientData the series is too short for the configured periods.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMalformedSeries timestamp ordering or OHLC invariants are violated.
	ErrMalformedSeries = errors.New("malformed series")
	// ErrUnknownColumn a field referenced by name is absent from the candle schema.
	ErrUnknownColumn = errors.New("unknown column")
)

// ErrFeedExhausted a finite candle feed has no further data.
var ErrFeedExhausted = errors.New("candle feed exhausted")
