package relay

import "fmt"

// APIError describes a failed Partner API call. StatusCode is 0 when the
// request never produced an HTTP response (connection-level failure).
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error // underlying transport error, if any
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 && e.Err != nil {
		return fmt.Sprintf("relay API %s %s failed: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("relay API %s %s failed (%d): %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying: rate limiting,
// server-side errors, and connection-level failures. Anything else is a
// terminal client or application error.
func (e *APIError) Retryable() bool {
	if e.StatusCode == 0 {
		return e.Err != nil
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}
