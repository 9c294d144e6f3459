package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyNotFound(t *testing.T) {
	err := PolicyNotFound("logs")
	assert.EqualError(t, err, "policy 'logs' not found")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", err)))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "policy", nf.Kind)
	assert.Equal(t, "logs", nf.Name)
}

func TestPolicyUpdateFailed_KeepsRawBody(t *testing.T) {
	body := `{"error":{"type":"illegal_argument_exception"}}`
	err := PolicyUpdateFailed("logs", 400, body)

	assert.True(t, errors.Is(err, ErrBackendRejected))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), body)

	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, 400, rej.StatusCode)
	assert.Equal(t, body, rej.Body)
}

func TestFetchFailed(t *testing.T) {
	err := FetchFailed(503, "unavailable")
	assert.EqualError(t, err, "fetch saved objects: unexpected status 503: unavailable")
}

func TestRejectedError_NoOp(t *testing.T) {
	err := &RejectedError{StatusCode: 500, Body: "boom"}
	assert.EqualError(t, err, "unexpected status 500: boom")
}

func TestMalformed(t *testing.T) {
	err := Malformed(errors.New("unexpected EOF"))
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.Contains(t, err.Error(), "unexpected EOF")
}
