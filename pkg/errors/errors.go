// Package errors defines the failure taxonomy shared by the index, search and
// ingestion layers, plus the AppError wrapper that carries an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfiguration         = errors.New("configuration error")
	ErrMalformedRecord       = errors.New("malformed record")
	ErrInvalidFieldReference = errors.New("invalid field reference")
	ErrQuerySyntax           = errors.New("query syntax error")
	ErrIndexNotFound         = errors.New("index not found")
	ErrEngine                = errors.New("engine error")
	ErrCache                 = errors.New("cache error")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrInternal              = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) *AppError {
	return Newf(ErrConfiguration, http.StatusBadRequest, format, args...)
}

// Enginef wraps an underlying storage failure as an EngineError. The cause is
// kept in the chain so callers can still inspect it.
func Enginef(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", Newf(ErrEngine, http.StatusInternalServerError, format, args...), cause)
}

// Cachef wraps a cache client failure as a CacheError.
func Cachef(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", Newf(ErrCache, http.StatusServiceUnavailable, format, args...), cause)
}

// Kind names the taxonomy bucket of err, or "InternalError" when err carries
// none of the known sentinels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrMalformedRecord):
		return "MalformedRecord"
	case errors.Is(err, ErrInvalidFieldReference):
		return "InvalidFieldReference"
	case errors.Is(err, ErrQuerySyntax):
		return "QuerySyntaxError"
	case errors.Is(err, ErrIndexNotFound):
		return "IndexNotFound"
	case errors.Is(err, ErrEngine):
		return "EngineError"
	case errors.Is(err, ErrCache):
		return "CacheError"
	case errors.Is(err, ErrRateLimited):
		return "RateLimited"
	default:
		return "InternalError"
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrMalformedRecord),
		errors.Is(err, ErrInvalidFieldReference),
		errors.Is(err, ErrQuerySyntax):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrCache):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
