package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})
	handler := RequestID()(next)

	// generated
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	// propagated
	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, incoming, seen)
	assert.Equal(t, incoming, rr.Header().Get(RequestIDHeader))

	// garbage is replaced
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nX-Injected: 1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.NotEqual(t, "not-a-uuid\nX-Injected: 1", seen)
	_, err = uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
