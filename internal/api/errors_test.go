package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusRequestTimeout, ErrTimeout},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusTooManyRequests, ErrThrottled},
		{http.StatusNotImplemented, ErrNotImplemented},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusServiceUnavailable, ErrServerError},
		{http.StatusOK, nil},
		{http.StatusNoContent, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatus(tt.status), "status %d", tt.status) //nolint:testifylint // sentinel identity
	}
}

func TestAPIError_Format(t *testing.T) {
	err := &APIError{StatusCode: 404, RequestID: "abc", Message: "gone", Err: ErrNotFound}
	assert.Equal(t, "api: HTTP 404 (request-id: abc): gone", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	noID := &APIError{StatusCode: 500, Message: "boom", Err: ErrServerError}
	assert.Equal(t, "api: HTTP 500: boom", noID.Error())
}

func TestIsDeactivation(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"error":"Account deactivated by administrator"}`, true},
		{`{"error":"your session is no longer valid"}`, true},
		{`{"error":"SESSION REVOKED"}`, true},
		{`{"error":"missing scope reports:read"}`, false},
		{``, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isDeactivation(tt.body), "body %q", tt.body)
	}
}
