package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "selfid/pkg/domain"
)

// CallerResolver turns a bearer token into the caller's identity address.
type CallerResolver interface {
	CallerFromToken(tokenString string) (id.Address, error)
}

type contextKeyCaller struct{}
type contextKeyRequestID struct{}

// ContextKeyCaller is exported for use in handler tests.
var ContextKeyCaller = contextKeyCaller{}

// GetCaller retrieves the authenticated caller address from the context.
func GetCaller(ctx context.Context) id.Address {
	caller, ok := ctx.Value(ContextKeyCaller).(id.Address)
	if !ok {
		return ""
	}
	return caller
}

// WithCaller injects a caller address, for tests that bypass RequireAuth.
func WithCaller(ctx context.Context, caller id.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// RequireAuth resolves the caller address from the Authorization header and
// rejects requests without a valid bearer token. Authorization against key
// purposes is the registries' job; this only establishes who is calling.
func RequireAuth(resolver CallerResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			caller, err := resolver.CallerFromToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
