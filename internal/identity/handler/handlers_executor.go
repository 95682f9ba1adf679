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

// ExecuteRequest files a proposed external call. Payload is base64 in JSON.
type ExecuteRequest struct {
	Target  string `json:"target"`
	Value   uint64 `json:"value"`
	Payload []byte `json:"payload"`
}

// ExecuteResponse returns the id assigned to the filed request.
type ExecuteResponse struct {
	RequestID uint64 `json:"request_id"`
}

// ApproveRequest records or withdraws an approval.
type ApproveRequest struct {
	Approve bool `json:"approve"`
}

// ApproveResponse reports whether the approval round succeeded. When the
// approval tipped the request over threshold, Executed and Succeeded carry
// the inner call's outcome.
type ApproveResponse struct {
	Success bool `json:"success"`
}

// ExecutionResponse is the read shape for an execution request.
type ExecutionResponse struct {
	RequestID uint64   `json:"request_id"`
	Target    string   `json:"target"`
	Value     uint64   `json:"value"`
	Payload   []byte   `json:"payload"`
	Approvals []string `json:"approvals"`
	Status    string   `json:"status"`
	Succeeded bool     `json:"succeeded"`
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, err := id.ParseAddress(req.Target)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	requestID, err := h.identity.Execute(ctx, caller, target, req.Value, req.Payload)
	if err != nil {
		h.logger.WarnContext(ctx, "execute rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.ExecutionsFiled.Inc()
	h.metrics.PendingRequests.Set(float64(h.identity.PendingRequests(ctx)))
	shared.WriteJSON(w, http.StatusCreated, ExecuteResponse{RequestID: requestID})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	requestID, err := parseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	success, err := h.identity.Approve(ctx, caller, requestID, req.Approve)
	if err != nil {
		h.logger.WarnContext(ctx, "approve rejected",
			"request_id", middleware.GetRequestID(ctx),
			"execution_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	h.metrics.PendingRequests.Set(float64(h.identity.PendingRequests(ctx)))
	shared.WriteJSON(w, http.StatusOK, ApproveResponse{Success: success})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := parseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := h.identity.GetRequest(r.Context(), requestID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resp := ExecutionResponse{
		RequestID: req.ID,
		Target:    string(req.Target),
		Value:     req.Value,
		Payload:   req.Payload,
		Approvals: make([]string, 0, len(req.Approvals)),
		Status:    string(req.Status),
		Succeeded: req.Succeeded,
	}
	for key := range req.Approvals {
		resp.Approvals = append(resp.Approvals, string(key))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}
