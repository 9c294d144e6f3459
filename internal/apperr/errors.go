package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrBackendRejected      = errors.New("backend rejected request")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrDialectIndeterminate = errors.New("cannot determine cluster dialect")
	ErrUnsupportedDialect   = errors.New("unsupported dialect")
)

// NotFoundError names the resource that could not be found.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RejectedError carries a non-success backend response. Body is the raw
// response text so the operator sees exactly what the cluster said.
type RejectedError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *RejectedError) Unwrap() error { return ErrBackendRejected }

// PolicyNotFound reports a lifecycle policy that the cluster does not know.
func PolicyNotFound(name string) error {
	return &NotFoundError{Kind: "policy", Name: name}
}

// PolicyUpdateFailed reports a rejected policy write.
func PolicyUpdateFailed(name string, status int, body string) error {
	return &RejectedError{Op: fmt.Sprintf("update policy '%s'", name), StatusCode: status, Body: body}
}

// FetchFailed reports a rejected saved-object read.
func FetchFailed(status int, body string) error {
	return &RejectedError{Op: "fetch saved objects", StatusCode: status, Body: body}
}

// Malformed wraps a decode failure so callers can match ErrMalformedResponse.
func Malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// IsNotFound reports whether err is, or wraps, a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
