package domain

import "errors"

// ErrInvalidRowLimit means the caller asked for zero or a negative number
// of rows. Limits above the configured maximum are not an error: they are
// silently capped and the applied value is reported back.
var ErrInvalidRowLimit = errors.New("row limit must be a positive integer")

// ClampRowLimit resolves a caller-supplied row limit against the hard
// maximum. The returned value is always in [1, maxLimit].
func ClampRowLimit(requested, maxLimit int) (int, error) {
	if requested <= 0 {
		return 0, ErrInvalidRowLimit
	}
	if requested > maxLimit {
		return maxLimit, nil
	}
	return requested, nil
}
