package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnknown backs a failure that was constructed without a cause.
var ErrUnknown = errors.New("unknown failure")

// NetworkError means no response reached us: dial, TLS, timeout, reset.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// HTTPError is a response whose status is outside 2xx.
type HTTPError struct {
	Code    int
	Message string
	RawBody []byte
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// Temporary reports whether the status is worth trying again or elsewhere.
func (e *HTTPError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError ||
		e.Code == http.StatusTooManyRequests ||
		e.Code == http.StatusRequestTimeout
}

// DecodeError is a successful response whose body could not be materialized.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsNetwork reports whether err is, or wraps, a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsDecode reports whether err is, or wraps, a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// HTTPStatus returns the status code carried by err, or 0.
func HTTPStatus(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

// ErrorKind is a low-cardinality label for err, used in logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsNetwork(err):
		return "network"
	case IsDecode(err):
		return "decode"
	case HTTPStatus(err) != 0:
		return "http"
	default:
		return "other"
	}
}
