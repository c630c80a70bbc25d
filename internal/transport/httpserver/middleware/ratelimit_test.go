package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterThrottlesMutations(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPut, "10.0.0.1:1001").Code)

	limited := send(http.MethodPost, "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send(http.MethodGet, "10.0.0.1:1003").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "10.0.0.2:1000").Code)
}

func TestRateLimiterKeysByUser(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req = req.WithContext(WithUser(req.Context(), User{ID: userID}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("u-1"))
	assert.Equal(t, http.StatusOK, send("u-2"))
	assert.Equal(t, http.StatusTooManyRequests, send("u-1"))
}
