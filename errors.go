package manta

import (
	"errors"
	"net/http"
	"strconv"
)

var (
	// ErrKeyLoad is returned when the key material cannot be read or parsed.
	ErrKeyLoad = errors.New("can't load key pair")
	// ErrUnsupportedKey is returned when the key is not an RSA key.
	ErrUnsupportedKey = errors.New("unsupported key algorithm")
	// ErrSignature is returned when the signature cannot be computed.
	ErrSignature = errors.New("invalid signature")
	// ErrAuthFailed is returned by Verifier when a request's signature is rejected.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrUnsupported is returned for operations the service does not offer.
	ErrUnsupported = errors.New("not supported")
	// ErrInvalidName is returned when a container or blob name is rejected
	// before any request is made.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidConfig is returned by constructors when required settings are missing.
	ErrInvalidConfig = errors.New("invalid config")
)

// SigningError aborts a request before it is dispatched.
type SigningError struct {
	Op  string
	Err error
}

func (e *SigningError) Error() string {
	return "sign request: " + e.Op + ": " + e.Err.Error()
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body or header the service sent in an
// unexpected shape.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return "decode " + e.What + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the request is not permitted (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrConflict is returned when the resource is in a conflicting state (409),
	// for example deleting a directory that still has entries.
	ErrConflict = &APIError{StatusCode: http.StatusConflict}
)
