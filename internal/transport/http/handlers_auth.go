package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	jwttoken "selfid/internal/jwt_token"
	"selfid/internal/transport/http/shared"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

const callerTokenTTL = 15 * time.Minute

// AuthHandler mints the bearer tokens that carry a caller address into the
// identity routes. Proof of address ownership is out of band; this endpoint
// only binds an address string into a signed token.
type AuthHandler struct {
	tokens *jwttoken.Service
	logger *slog.Logger
}

// TokenRequest asks for a caller token for the given address.
type TokenRequest struct {
	Address string `json:"address"`
}

// TokenResponse carries the signed caller token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func NewAuthHandler(tokens *jwttoken.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, logger: logger}
}

// Register registers the auth routes with the chi router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/token", h.handleToken)
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	address, err := id.ParseAddress(req.Address)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateCallerToken(address, callerTokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to sign caller token", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresIn: int64(callerTokenTTL.Seconds()),
	})
}
