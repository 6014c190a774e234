// Package errors provides the structured error taxonomy for part searches.
//
// Every error the distributor client classifies from an HTTP response is an
// [*Error]. The hierarchy is flat: one base kind ([ErrCodePartSearch]) and
// four specializations.
//
// # Error Codes
//
//   - PART_SEARCH: generic failure (unexpected status, malformed payload, bad input)
//   - RATE_LIMITED: the distributor throttled the caller (HTTP 429)
//   - CONNECTION: the resource could not be reached (HTTP 404, 503)
//   - UNAUTHORIZED: missing, expired or rejected credentials (HTTP 401, 403)
//   - BAD_REQUEST: the distributor rejected the request (HTTP 400)
//
// Transport failures (DNS, refused connections, timeouts) are never wrapped
// into this taxonomy, so callers can tell "could not reach the server" apart
// from "the server answered with a classified failure".
//
// # Usage
//
//	infos, err := client.LookupByPartNumbers(ctx, parts)
//	switch {
//	case errors.IsAuth(err):
//	    // refresh the token and call again
//	case errors.IsRateLimit(err):
//	    // wait and call again
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the part-search taxonomy.
const (
	ErrCodePartSearch  Code = "PART_SEARCH"
	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeConnection  Code = "CONNECTION"
	ErrCodeAuth        Code = "UNAUTHORIZED"
	ErrCodeBadRequest  Code = "BAD_REQUEST"
)

// Error is a classified part-search failure.
type Error struct {
	Code       Code          // Machine-readable error code
	Message    string        // Human-readable message
	StatusCode int           // HTTP status that produced the error, 0 if none
	Body       string        // Response body as received, may be empty
	RetryAfter time.Duration // Parsed Retry-After hint for RATE_LIMITED, 0 if absent
	Cause      error         // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d", e.StatusCode)
		if body := strings.TrimSpace(e.Body); body != "" {
			b.WriteString(", body: ")
			b.WriteString(body)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// FromStatus classifies a non-200 HTTP status into the taxonomy.
// The message names the operation that failed (e.g. "lookup GRM1555").
func FromStatus(status int, body string, format string, args ...any) *Error {
	e := &Error{
		Code:       codeForStatus(status),
		Message:    fmt.Sprintf(format, args...),
		StatusCode: status,
		Body:       body,
	}
	return e
}

func codeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuth
	case http.StatusNotFound, http.StatusServiceUnavailable:
		return ErrCodeConnection
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	default:
		return ErrCodePartSearch
	}
}

// ParseRetryAfter parses a Retry-After header value given in seconds or as
// an HTTP date. Returns 0 when the value is empty or unparseable.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsPartSearch reports whether err belongs to the taxonomy at all.
// Every specialization is also a part-search error.
func IsPartSearch(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsAuth reports whether err is an authentication error.
func IsAuth(err error) bool { return Is(err, ErrCodeAuth) }

// IsRateLimit reports whether err is a rate-limit error.
func IsRateLimit(err error) bool { return Is(err, ErrCodeRateLimited) }

// IsConnection reports whether err is a connection or not-found error.
func IsConnection(err error) bool { return Is(err, ErrCodeConnection) }

// IsBadRequest reports whether err is a bad-request error.
func IsBadRequest(err error) bool { return Is(err, ErrCodeBadRequest) }

// RetryAfter returns the Retry-After hint carried by err, or 0.
func RetryAfter(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
