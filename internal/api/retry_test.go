package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalcBackoff_Ranges(t *testing.T) {
	// Jitter is random; check the envelope over many samples.
	for range 100 {
		d0 := calcBackoff(0)
		d1 := calcBackoff(1)
		d2 := calcBackoff(2)

		assert.GreaterOrEqual(t, d0, 1*time.Second)
		assert.Less(t, d0, 1*time.Second+maxJitter)

		assert.GreaterOrEqual(t, d1, 2*time.Second)
		assert.Less(t, d1, 2*time.Second+maxJitter)

		assert.GreaterOrEqual(t, d2, 4*time.Second)
		assert.Less(t, d2, 4*time.Second+maxJitter)

		// Jitter bands never overlap, so the progression is strict.
		assert.Less(t, d0, d1)
		assert.Less(t, d1, d2)
	}
}

func TestCalcBackoff_Capped(t *testing.T) {
	for attempt := range 12 {
		assert.LessOrEqual(t, calcBackoff(attempt), maxBackoff, "attempt %d", attempt)
	}

	assert.Equal(t, maxBackoff, calcBackoff(10))
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusRequestTimeout, true},
		// 501 is a permanent server decision, not transient.
		{http.StatusNotImplemented, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retryable, isRetryableStatus(tt.status), "status %d", tt.status)
	}
}
