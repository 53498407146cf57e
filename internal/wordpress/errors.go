package wordpress

import "errors"

var (
	// ErrUnavailable is returned when a request failed after exhausting
	// its retry budget. Callers degrade to partial results instead of
	// aborting the run.
	ErrUnavailable = errors.New("resource unavailable after retries")

	// ErrMalformedResponse is returned when the API responds with a body
	// that does not match the expected shape (e.g. a non-list posts page).
	ErrMalformedResponse = errors.New("malformed API response")
)
