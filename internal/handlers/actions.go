package handlers

import (
	"net/http"
	"strconv"

	"github.com/merchflow/autopilot/internal/services"
)

type ActionsHandler struct {
	service services.ApprovalService
}

func NewActionsHandler(service services.ApprovalService) *ActionsHandler {
	return &ActionsHandler{service: service}
}

// HandleAutonomousActions serves GET /api/autonomous-actions: the executed-
// action history projected from the audit trail.
func (h *ActionsHandler) HandleAutonomousActions(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.service.ListExecutedActions(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleAuditTrail serves GET /api/audit-trail: the raw transition log.
func (h *ActionsHandler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.service.ListAuditEntries(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
