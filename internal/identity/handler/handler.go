// Package handler exposes the identity registries over HTTP. It is a thin
// layer: every route resolves the authenticated caller, decodes the request,
// and delegates to the identity service without embedding business rules.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"selfid/internal/identity/models"
	"selfid/internal/platform/metrics"
	"selfid/internal/platform/middleware"
	"selfid/internal/transport/http/shared"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

// Service is the identity surface the handlers need.
type Service interface {
	Address() id.Address

	AddKey(ctx context.Context, caller id.Address, keyID id.KeyID, purpose id.Purpose, keyType id.KeyType) error
	RemoveKey(ctx context.Context, caller id.Address, keyID id.KeyID, purpose id.Purpose) error
	GetKey(ctx context.Context, keyID id.KeyID) models.Key
	GetKeyPurposes(ctx context.Context, keyID id.KeyID) []id.Purpose
	GetKeysByPurpose(ctx context.Context, purpose id.Purpose) []id.KeyID
	KeyHasPurpose(ctx context.Context, keyID id.KeyID, purpose id.Purpose) bool

	Execute(ctx context.Context, caller id.Address, target id.Address, value uint64, payload []byte) (uint64, error)
	Approve(ctx context.Context, caller id.Address, requestID uint64, decision bool) (bool, error)
	GetRequest(ctx context.Context, requestID uint64) (models.ExecutionRequest, error)
	PendingRequests(ctx context.Context) int

	AddClaim(ctx context.Context, caller id.Address, topic id.Topic, scheme id.Scheme, issuer id.Address, signature, data []byte, uri string) (id.ClaimID, error)
	AddClaims(ctx context.Context, caller id.Address, topics []id.Topic, issuers []id.Address, packedSignatures, packedData []byte, dataLengths []int) error
	RemoveClaim(ctx context.Context, caller id.Address, claimID id.ClaimID) error
	GetClaim(ctx context.Context, claimID id.ClaimID) models.Claim
	GetClaimIDsByTopic(ctx context.Context, topic id.Topic) []id.ClaimID
}

// Handler handles identity-related endpoints.
type Handler struct {
	logger   *slog.Logger
	identity Service
	metrics  *metrics.Metrics
	resolver middleware.CallerResolver
}

// New creates a new identity Handler.
func New(
	identity Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	resolver middleware.CallerResolver) *Handler {
	return &Handler{
		logger:   logger,
		identity: identity,
		metrics:  metrics,
		resolver: resolver,
	}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	identityRouter := chi.NewRouter()
	identityRouter.Use(middleware.Recovery(h.logger))
	identityRouter.Use(middleware.RequestID)
	identityRouter.Use(middleware.Logger(h.logger))
	identityRouter.Use(middleware.ContentTypeJSON)
	identityRouter.Use(middleware.Latency(h.metrics))
	identityRouter.Use(middleware.RequireAuth(h.resolver, h.logger))

	identityRouter.Post("/keys", h.handleAddKey)
	identityRouter.Post("/keys/remove", h.handleRemoveKey)
	identityRouter.Get("/keys", h.handleKeysByPurpose)
	identityRouter.Get("/keys/{keyID}", h.handleGetKey)
	identityRouter.Get("/keys/{keyID}/purposes", h.handleKeyPurposes)
	identityRouter.Get("/keys/{keyID}/purposes/{purpose}", h.handleKeyHasPurpose)

	identityRouter.Post("/executions", h.handleExecute)
	identityRouter.Post("/executions/{requestID}/approve", h.handleApprove)
	identityRouter.Get("/executions/{requestID}", h.handleGetRequest)

	identityRouter.Post("/claims", h.handleAddClaim)
	identityRouter.Post("/claims/batch", h.handleAddClaims)
	identityRouter.Post("/claims/remove", h.handleRemoveClaim)
	identityRouter.Get("/claims", h.handleClaimIDsByTopic)
	identityRouter.Get("/claims/{claimID}", h.handleGetClaim)

	r.Mount("/identity", identityRouter)
}

// caller pulls the authenticated caller address that RequireAuth stored.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	caller := middleware.GetCaller(r.Context())
	if caller == "" {
		h.logger.ErrorContext(r.Context(), "caller missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return caller, true
}

func parsePurpose(raw string) (id.Purpose, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid purpose")
	}
	return id.Purpose(n), nil
}

func parseTopic(raw string) (id.Topic, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid topic")
	}
	return id.Topic(n), nil
}

func parseRequestID(raw string) (uint64, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid request id")
	}
	return n, nil
}
