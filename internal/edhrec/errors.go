package edhrec

import "errors"

// Error types returned by the client.
const (
	ErrNotFound    = "not_found"
	ErrRateLimited = "rate_limited"
	ErrUnavailable = "unavailable"
	ErrParseError  = "parse_error"
	ErrInvalidSlug = "invalid_slug"
)

// APIError is an error from the EDHREC API.
type APIError struct {
	Type       string
	StatusCode int
	URL        string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing page.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrNotFound
}
