package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	cases := map[string]struct {
		in         error
		wantCode   string
		wantStatus int
	}{
		"nil":                  {in: nil},
		"no rows is not found": {in: pgx.ErrNoRows, wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		"wrapped no rows":      {in: errors.Join(errors.New("query users"), pgx.ErrNoRows), wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		"plain error":          {in: errors.New("boom"), wantCode: "INTERNAL_ERROR", wantStatus: http.StatusInternalServerError},
		"passthrough":          {in: NewConflict("busy", nil), wantCode: "CONFLICT", wantStatus: http.StatusConflict},
		"unavailable":          {in: NewUnavailable("store down", errors.New("dial tcp")), wantCode: "UNAVAILABLE", wantStatus: http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := ToDomainError(tc.in)
			if tc.in == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantCode, got.Code)
			assert.Equal(t, tc.wantStatus, got.HTTPStatus)
		})
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp")
	err := NewUnavailable("store down", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "store down")
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestNewConfigInvalid(t *testing.T) {
	err := NewConfigInvalid(errors.New("weights must not all be zero"))
	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "CONFIG_INVALID", de.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
}
