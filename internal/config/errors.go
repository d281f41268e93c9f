package config

import "errors"

// Configuration validation errors, returned by Config.Validate. Callers
// match them with errors.Is.
var (
	// ErrInvalidMinLength is returned when extract.min_length is negative.
	ErrInvalidMinLength = errors.New("invalid extract.min_length: must be non-negative")

	// ErrInvalidReplaceRatio is returned when extract.replace_ratio is below 1.
	// A smaller ratio would let shorter secondary content replace the primary.
	ErrInvalidReplaceRatio = errors.New("invalid extract.replace_ratio: must be at least 1")

	// ErrInvalidSelector is returned when a classify.extra_selectors entry
	// does not compile.
	ErrInvalidSelector = errors.New("invalid classify.extra_selectors entry")

	// ErrInvalidWorkers is returned when batch.workers is not positive.
	ErrInvalidWorkers = errors.New("invalid batch.workers: must be positive")

	// ErrInvalidTimeout is returned when fetch.timeout is not positive or
	// browser.wait_stable is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: fetch.timeout must be positive and browser.wait_stable non-negative")
)
