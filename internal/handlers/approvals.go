package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "github.com/merchflow/autopilot/internal/errors"
	"github.com/merchflow/autopilot/internal/models"
	"github.com/merchflow/autopilot/internal/services"
)

type ApprovalsHandler struct {
	service services.ApprovalService
}

func NewApprovalsHandler(service services.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{service: service}
}

// HandleApprovals serves GET /api/pending-approvals with optional status and
// action_type filters.
func (h *ApprovalsHandler) HandleApprovals(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := tenantID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := &models.ApprovalFilter{
		Status:     models.ApprovalStatus(q.Get("status")),
		ActionType: models.ActionType(q.Get("action_type")),
		Limit:      limit,
		Offset:     offset,
	}

	list, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleApproval serves GET /api/pending-approvals/{id}.
func (h *ApprovalsHandler) HandleApproval(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := tenantID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleApprove serves POST /api/pending-approvals/{id}/approve.
func (h *ApprovalsHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

// HandleReject serves POST /api/pending-approvals/{id}/reject.
func (h *ApprovalsHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

// transition runs a single-item state change. A stale transition (the record
// already left pending) returns the current record as success: double-clicks
// and retried requests must not surface an error or double-execute. An
// executor failure returns 502 with the approved record in the body — the
// decision stands, only execution is pending.
func (h *ApprovalsHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string, string) (*models.PendingApproval, error)) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := tenantID(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	rec, err := op(r.Context(), userID, id, h.reviewer(r, userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyReviewed) {
			writeJSON(w, http.StatusOK, rec)
			return
		}
		if errors.Is(err, apperrors.ErrExecutorUnavailable) {
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"approval": rec,
				"error":    err.Error(),
			})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleBulkApprove serves POST /api/pending-approvals/bulk-approve.
func (h *ApprovalsHandler) HandleBulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.service.BulkApprove)
}

// HandleBulkReject serves POST /api/pending-approvals/bulk-reject.
func (h *ApprovalsHandler) HandleBulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.service.BulkReject)
}

func (h *ApprovalsHandler) bulk(w http.ResponseWriter, r *http.Request, op func(context.Context, string, []string, string) *services.BulkResult) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := tenantID(w, r)
	if !ok {
		return
	}
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(payload.IDs) == 0 {
		http.Error(w, "ids must not be empty", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, op(r.Context(), userID, payload.IDs, h.reviewer(r, userID)))
}

// HandleSubmitProposal serves POST /api/proposals: the proposal source's
// entry point into admission control.
func (h *ApprovalsHandler) HandleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := tenantID(w, r)
	if !ok {
		return
	}
	var candidate models.ProposalCandidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Submit(r.Context(), userID, &candidate)
	if err != nil {
		if errors.Is(err, apperrors.ErrExecutorUnavailable) && result != nil {
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"result": result,
				"error":  err.Error(),
			})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// reviewer resolves the acting reviewer; a dedicated header allows staff
// accounts acting on behalf of the tenant.
func (h *ApprovalsHandler) reviewer(r *http.Request, userID string) string {
	if reviewer := r.Header.Get("X-Reviewer-ID"); reviewer != "" {
		return reviewer
	}
	return userID
}
