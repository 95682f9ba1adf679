package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

type stubResolver struct {
	callers map[string]id.Address
}

func (r *stubResolver) CallerFromToken(token string) (id.Address, error) {
	if caller, ok := r.callers[token]; ok {
		return caller, nil
	}
	return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := &stubResolver{callers: map[string]id.Address{"good-token": "0xaa01"}}

	var sawCaller id.Address
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawCaller = GetCaller(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	protected := RequireAuth(resolver, logger)(next)

	t.Run("missing header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-bearer header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token reaches the handler with the caller set", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, id.Address("0xaa01"), sawCaller)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})
	handler := RequestID(next)

	t.Run("generates an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates a caller-supplied id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "req-123", seen)
	})
}

func TestGetCallerDefaults(t *testing.T) {
	assert.Equal(t, id.Address(""), GetCaller(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
