// Package httptransport assembles the public HTTP surface: the identity
// routes, the token endpoint, health, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identityHandler "selfid/internal/identity/handler"
	jwttoken "selfid/internal/jwt_token"
	"selfid/internal/platform/metrics"
	"selfid/internal/transport/http/shared"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Identity identityHandler.Service
	Tokens   *jwttoken.Service
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// NewRouter wires all public endpoints. Health and metrics are unauthenticated;
// everything under /identity requires a caller token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := NewAuthHandler(d.Tokens, d.Logger)
	auth.Register(r)

	identity := identityHandler.New(d.Identity, d.Logger, d.Metrics, d.Tokens)
	identity.Register(r)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
