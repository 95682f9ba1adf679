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

// AddClaimRequest adds or overwrites a single claim. Signature and Data are
// base64 in JSON.
type AddClaimRequest struct {
	Topic     uint64 `json:"topic"`
	Scheme    uint32 `json:"scheme"`
	Issuer    string `json:"issuer"`
	Signature []byte `json:"signature"`
	Data      []byte `json:"data"`
	URI       string `json:"uri"`
}

// AddClaimResponse returns the deterministic claim id.
type AddClaimResponse struct {
	ClaimID string `json:"claim_id"`
}

// AddClaimsRequest inserts a batch of claims atomically. Signatures are packed
// at a fixed 65-byte width; data segments are packed back to back with their
// lengths listed separately.
type AddClaimsRequest struct {
	Topics           []uint64 `json:"topics"`
	Issuers          []string `json:"issuers"`
	PackedSignatures []byte   `json:"packed_signatures"`
	PackedData       []byte   `json:"packed_data"`
	DataLengths      []int    `json:"data_lengths"`
}

// RemoveClaimRequest removes a claim by id.
type RemoveClaimRequest struct {
	ClaimID string `json:"claim_id"`
}

// ClaimResponse is the read shape for a claim. Unknown ids come back zeroed.
type ClaimResponse struct {
	ClaimID   string `json:"claim_id"`
	Topic     uint64 `json:"topic"`
	Scheme    uint32 `json:"scheme"`
	Issuer    string `json:"issuer"`
	Signature []byte `json:"signature"`
	Data      []byte `json:"data"`
	URI       string `json:"uri"`
}

func (h *Handler) handleAddClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req AddClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	issuer, err := id.ParseAddress(req.Issuer)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	claimID, err := h.identity.AddClaim(ctx, caller, id.Topic(req.Topic), id.Scheme(req.Scheme), issuer, req.Signature, req.Data, req.URI)
	if err != nil {
		h.logger.WarnContext(ctx, "add claim rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.ClaimsAdded.Inc()
	shared.WriteJSON(w, http.StatusCreated, AddClaimResponse{ClaimID: string(claimID)})
}

func (h *Handler) handleAddClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req AddClaimsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	topics := make([]id.Topic, 0, len(req.Topics))
	for _, t := range req.Topics {
		topics = append(topics, id.Topic(t))
	}
	issuers := make([]id.Address, 0, len(req.Issuers))
	for _, raw := range req.Issuers {
		issuer, err := id.ParseAddress(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		issuers = append(issuers, issuer)
	}

	if err := h.identity.AddClaims(ctx, caller, topics, issuers, req.PackedSignatures, req.PackedData, req.DataLengths); err != nil {
		h.logger.WarnContext(ctx, "add claims batch rejected",
			"request_id", middleware.GetRequestID(ctx),
			"batch_size", len(topics),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.ClaimsAdded.Add(float64(len(topics)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req RemoveClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	claimID, err := id.ParseClaimID(req.ClaimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.identity.RemoveClaim(ctx, caller, claimID); err != nil {
		h.logger.WarnContext(ctx, "remove claim rejected",
			"request_id", middleware.GetRequestID(ctx),
			"claim_id", claimID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.ClaimsRemoved.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	claim := h.identity.GetClaim(r.Context(), claimID)
	shared.WriteJSON(w, http.StatusOK, ClaimResponse{
		ClaimID:   string(claim.ID),
		Topic:     uint64(claim.Topic),
		Scheme:    uint32(claim.Scheme),
		Issuer:    string(claim.Issuer),
		Signature: claim.Signature,
		Data:      claim.Data,
		URI:       claim.URI,
	})
}

// handleClaimIDsByTopic lists claim ids for a topic. The topic can be given
// numerically (?topic=42) or as a short ASCII label (?label=email) which is
// encoded to its numeric form first.
func (h *Handler) handleClaimIDsByTopic(w http.ResponseWriter, r *http.Request) {
	var topic id.Topic
	var err error
	if label := r.URL.Query().Get("label"); label != "" {
		topic, err = id.EncodeTopicLabel(label)
	} else {
		topic, err = parseTopic(r.URL.Query().Get("topic"))
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	claimIDs := h.identity.GetClaimIDsByTopic(r.Context(), topic)
	out := make([]string, 0, len(claimIDs))
	for _, c := range claimIDs {
		out = append(out, string(c))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"topic":     uint64(topic),
		"claim_ids": out,
	})
}
