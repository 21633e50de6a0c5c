package core

import "errors"

// Error taxonomy surfaced by the statistics engine. Callers discriminate with
// errors.Is; the engine never retries or substitutes default data.
var (
	// ErrDataUnavailable marks a failed or corrupt read from the record store.
	ErrDataUnavailable = errors.New("pledge data unavailable")

	// ErrInvalidWindow marks a malformed or empty report time window.
	ErrInvalidWindow = errors.New("invalid time window")

	// ErrConfiguration marks a missing or malformed report configuration.
	// Detected at startup; the process fails fast instead of serving empty
	// reports.
	ErrConfiguration = errors.New("invalid statistics configuration")
)
