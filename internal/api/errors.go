// Package api provides error types for dashboard API responses.
package api

import (
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
)

// StatusError is returned when the dashboard replies with an unexpected
// HTTP status. The body is captured (truncated) for the error message.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func newStatusError(op string, resp *nethttp.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// IsNotFound reports whether err indicates a missing project.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == nethttp.StatusNotFound
}

// IsThrottled reports whether err indicates the API rejected the call for
// rate limiting. retryablehttp already retries these; a surviving 429 means
// the limit persisted through the whole retry budget.
func IsThrottled(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == nethttp.StatusTooManyRequests
}
