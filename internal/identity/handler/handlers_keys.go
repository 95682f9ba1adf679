package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"selfid/internal/platform/middleware"
	"selfid/internal/transport/http/shared"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

// AddKeyRequest grants a purpose to a key, creating the key if needed.
type AddKeyRequest struct {
	KeyID   string `json:"key_id"`
	Purpose uint32 `json:"purpose"`
	KeyType uint32 `json:"key_type"`
}

// RemoveKeyRequest revokes a purpose from a key.
type RemoveKeyRequest struct {
	KeyID   string `json:"key_id"`
	Purpose uint32 `json:"purpose"`
}

// KeyResponse is the read shape for a key. Unknown keys come back with an
// empty purpose list rather than a 404.
type KeyResponse struct {
	KeyID    string   `json:"key_id"`
	Purposes []uint32 `json:"purposes"`
	KeyType  uint32   `json:"key_type"`
}

func (h *Handler) handleAddKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req AddKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	keyID, err := id.ParseKeyID(req.KeyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.identity.AddKey(ctx, caller, keyID, id.Purpose(req.Purpose), id.KeyType(req.KeyType)); err != nil {
		h.logger.WarnContext(ctx, "add key rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.KeysAdded.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req RemoveKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	keyID, err := id.ParseKeyID(req.KeyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.identity.RemoveKey(ctx, caller, keyID, id.Purpose(req.Purpose)); err != nil {
		h.logger.WarnContext(ctx, "remove key rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.KeysRemoved.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := id.ParseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	key := h.identity.GetKey(r.Context(), keyID)
	resp := KeyResponse{
		KeyID:    string(keyID),
		Purposes: make([]uint32, 0, len(key.Purposes)),
		KeyType:  uint32(key.Type),
	}
	for _, p := range key.Purposes {
		resp.Purposes = append(resp.Purposes, uint32(p))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleKeyPurposes(w http.ResponseWriter, r *http.Request) {
	keyID, err := id.ParseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	purposes := h.identity.GetKeyPurposes(r.Context(), keyID)
	out := make([]uint32, 0, len(purposes))
	for _, p := range purposes {
		out = append(out, uint32(p))
	}
	shared.WriteJSON(w, http.StatusOK, map[string][]uint32{"purposes": out})
}

func (h *Handler) handleKeyHasPurpose(w http.ResponseWriter, r *http.Request) {
	keyID, err := id.ParseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	purpose, err := parsePurpose(chi.URLParam(r, "purpose"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	has := h.identity.KeyHasPurpose(r.Context(), keyID, purpose)
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"has_purpose": has})
}

func (h *Handler) handleKeysByPurpose(w http.ResponseWriter, r *http.Request) {
	purpose, err := parsePurpose(r.URL.Query().Get("purpose"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	keyIDs := h.identity.GetKeysByPurpose(r.Context(), purpose)
	out := make([]string, 0, len(keyIDs))
	for _, k := range keyIDs {
		out = append(out, string(k))
	}
	shared.WriteJSON(w, http.StatusOK, map[string][]string{"key_ids": out})
}
