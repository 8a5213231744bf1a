// Package errmodel defines the compact error payload used across the module
// and the retryability predicate the transport relies on.
package errmodel

import (
	"errors"
	"net/http"
	"strings"
)

// Category values for compact errors. The set is closed: every error the
// module produces belongs to exactly one category.
const (
	// CategoryConfig marks caller misconfiguration. Never retryable.
	CategoryConfig = "config"
	// CategoryTransport marks connect/timeout/request-build failures.
	CategoryTransport = "transport"
	// CategoryStatus marks non-2xx HTTP responses.
	CategoryStatus = "status"
	// CategorySSE marks malformed frame or byte data. Not retryable.
	CategorySSE = "sse"
	// CategoryJSON marks structured-data encode/decode failures. Not retryable.
	CategoryJSON = "json"
	// CategorySubscriber marks observer-reported failures. Not retryable.
	CategorySubscriber = "subscriber"
	// CategoryExecution marks reducer-internal failures, e.g. patch application.
	CategoryExecution = "execution"
)

// Transport-level codes distinguishing retryable from terminal failures.
const (
	CodeConnect = "connect"
	CodeTimeout = "timeout"
	CodeRequest = "request"
	CodeStream  = "stream"
)

// Error is the compact error payload used internally and surfaced to callers.
// It implements the error interface.
type Error struct {
	Category string         `json:"category"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Status   int            `json:"status,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Category + "/" + e.Code + ": " + e.Message
	}
	return e.Category + ": " + e.Message
}

// New constructs a new compact error.
func New(category, code, message string, ctx map[string]any) *Error {
	ce := &Error{Category: category, Code: code, Message: truncate(message, 512)}
	if len(ctx) > 0 {
		ce.Context = ctx
	}
	return ce
}

// From converts any error into a compact Error. If err is already *Error,
// it is returned as-is.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	// Default to execution/internal for unknown error types.
	return &Error{Category: CategoryExecution, Code: "internal", Message: truncate(err.Error(), 512)}
}

// Convenience constructors.

// Config reports caller misconfiguration.
func Config(message string) *Error {
	return New(CategoryConfig, "", message, nil)
}

// Transport reports a connect/timeout/request-level failure.
func Transport(code string, cause error) *Error {
	msg := code
	if cause != nil {
		msg = cause.Error()
	}
	return New(CategoryTransport, code, msg, nil)
}

// Status reports a non-2xx HTTP response. body is truncated to 512 characters.
func Status(status int, body string) *Error {
	e := New(CategoryStatus, http.StatusText(status), truncate(body, 512), nil)
	e.Status = status
	return e
}

// SSE reports malformed frame or byte data.
func SSE(message string) *Error {
	return New(CategorySSE, "", message, nil)
}

// JSON reports a structured-data encode/decode failure.
func JSON(cause error) *Error {
	return New(CategoryJSON, "", cause.Error(), nil)
}

// Subscriber wraps an observer-reported failure.
func Subscriber(cause error) *Error {
	return New(CategorySubscriber, "", cause.Error(), nil)
}

// Execution reports a reducer-internal failure.
func Execution(message string) *Error {
	return New(CategoryExecution, "", message, nil)
}

// Retryable reports whether the request that produced err may be retried.
// Generally a request is retryable on:
//   - connection errors
//   - timeout errors
//   - request-level transport failures
//   - internal server errors (5xx)
//   - rate limiting (429)
func Retryable(err error) bool {
	ce := From(err)
	if ce == nil {
		return false
	}
	switch ce.Category {
	case CategoryTransport:
		return ce.Code == CodeConnect || ce.Code == CodeTimeout || ce.Code == CodeRequest
	case CategoryStatus:
		return ce.Status >= 500 || ce.Status == http.StatusTooManyRequests
	}
	return false
}

// IsCategory checks if err belongs to a specific category.
func IsCategory(err error, category string) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(ce.Category, category)
}

// truncate trims a string to max characters.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
