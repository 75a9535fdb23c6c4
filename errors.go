package relay

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrEmptyInput is returned when a request has no messages.
var ErrEmptyInput = errors.New("empty input")

// ErrNoChoices is returned when a backend answers without any output.
var ErrNoChoices = errors.New("backend returned no output")

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates a temporary failure such as a rate limit or overload.
	ErrorTransient ErrorCategory = "transient"
	// ErrorPermanent indicates a failure that retrying will not fix, such as
	// an invalid API key or unknown model.
	ErrorPermanent ErrorCategory = "permanent"
	// ErrorUserInput indicates a malformed request that must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that carries handling metadata.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is a categorized backend error.
type Error struct {
	Provider   Provider
	Msg        string
	Cat        ErrorCategory
	Code       int
	RetryDelay time.Duration
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Provider != "" {
		msg = string(e.Provider) + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// Retryable returns true if the error is transient.
func (e *Error) Retryable() bool { return e.Cat == ErrorTransient }

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a transient error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewPermanentError creates a permanent error.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error indicating invalid input.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// StatusError maps an HTTP status returned by a provider into a categorized
// error. Every provider adapter funnels its SDK errors through here.
func StatusError(provider Provider, statusCode int, retryAfter time.Duration, cause error) *Error {
	e := &Error{Provider: provider, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Msg, e.Cat = "rate limited", ErrorTransient
	case statusCode == http.StatusRequestTimeout:
		e.Msg, e.Cat = "request timeout", ErrorTransient
	case statusCode == 529, statusCode == http.StatusServiceUnavailable:
		e.Msg, e.Cat = "service overloaded", ErrorTransient
	case statusCode >= 500:
		e.Msg, e.Cat = "server error", ErrorTransient
	case statusCode == http.StatusUnauthorized:
		e.Msg, e.Cat = "authentication failed", ErrorPermanent
	case statusCode == http.StatusForbidden:
		e.Msg, e.Cat = "permission denied", ErrorPermanent
	case statusCode == http.StatusNotFound:
		e.Msg, e.Cat = "not found", ErrorPermanent
	case statusCode == http.StatusPaymentRequired:
		e.Msg, e.Cat = "insufficient credits", ErrorPermanent
	case statusCode >= 400:
		e.Msg, e.Cat = "invalid request", ErrorUserInput
	default:
		e.Msg, e.Cat = "request failed", ErrorPermanent
	}
	return e
}

// IsTransient reports whether err is categorized as transient.
func IsTransient(err error) bool {
	return categoryOf(err) == ErrorTransient
}

// IsPermanent reports whether err is categorized as permanent.
func IsPermanent(err error) bool {
	return categoryOf(err) == ErrorPermanent
}

// IsUserInput reports whether err is categorized as a user input error.
func IsUserInput(err error) bool {
	return categoryOf(err) == ErrorUserInput
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay suggested by the backend, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// ParseRetryAfter reads a Retry-After header given either in seconds or as
// an HTTP date. It returns 0 when the header is absent or unparseable.
func ParseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func categoryOf(err error) ErrorCategory {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category()
	}
	return ""
}
