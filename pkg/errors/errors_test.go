package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := InvalidRequest("page must be positive")
	assert.Equal(t, "INVALID_REQUEST: page must be positive", err.Error())

	wrapped := Internal(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "INTERNAL_ERROR")
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := StoreUnavailable(cause)

	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.True(t, errors.Is(err, cause))
}

func TestTimeout_DistinctFromStoreUnavailable(t *testing.T) {
	to := Timeout("search")
	su := StoreUnavailable(errors.New("no route to host"))

	assert.NotEqual(t, to.Code, su.Code)
	assert.Equal(t, http.StatusGatewayTimeout, to.Status)
	assert.Equal(t, http.StatusServiceUnavailable, su.Status)
	assert.True(t, errors.Is(to, ErrTimeout))
	assert.False(t, errors.Is(to, ErrStoreUnavailable))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("item", "abc"), http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("search: %w", ErrTimeout), http.StatusGatewayTimeout},
		{"store sentinel", fmt.Errorf("engine: %w", ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"invalid input", fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load item")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "load item")
}
