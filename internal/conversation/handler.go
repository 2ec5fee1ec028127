package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// Handler serves the conversation endpoints.
type Handler struct {
	desk   *FrontDesk
	logger *logging.Logger
}

func NewHandler(desk *FrontDesk, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{desk: desk, logger: logger.Component("conversation_http")}
}

type messageRequest struct {
	Message string `json:"message"`
}

// PostMessage handles POST /api/leads/{id}/messages.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.desk.HandleMessage(r.Context(), id, req.Message)
	if err != nil {
		h.writeFailure(w, id, "failed to process message", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type welcomeResponse struct {
	Message leads.Message `json:"message"`
	LeadID  string        `json:"leadId"`
}

// Welcome handles POST /api/leads/{id}/welcome.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	message, err := h.desk.Welcome(r.Context(), id)
	if err != nil {
		h.writeFailure(w, id, "Failed to generate welcome message", err)
		return
	}
	writeJSON(w, http.StatusOK, welcomeResponse{Message: message, LeadID: id})
}

// OwnerAssist handles POST /api/leads/{id}/owner-assist.
func (h *Handler) OwnerAssist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	suggestion, err := h.desk.OwnerAssist(r.Context(), id)
	if err != nil {
		h.writeFailure(w, id, "Failed to generate follow-up suggestion", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"leadId": id, "suggestion": suggestion})
}

// OwnerSummary handles GET /api/leads/owner-summary.
func (h *Handler) OwnerSummary(w http.ResponseWriter, r *http.Request) {
	label, summary, err := h.desk.OwnerSummary(r.Context())
	if err != nil {
		h.logger.Error("failed to generate owner summary", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate owner summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dateRangeLabel": label, "summary": summary})
}

// Env handles GET /api/leads/_env.
func (h *Handler) Env(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"hasLLMKey": h.desk.LLMConfigured()})
}

func (h *Handler) writeFailure(w http.ResponseWriter, leadID, msg string, err error) {
	switch {
	case errors.Is(err, leads.ErrLeadNotFound):
		writeError(w, http.StatusNotFound, "Lead not found")
	case errors.Is(err, ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("timed out waiting for lead", "lead_id", leadID, "error", err)
		writeError(w, http.StatusGatewayTimeout, "Timed out waiting for an earlier request on this lead")
	case errors.Is(err, context.Canceled):
		h.logger.Warn("request cancelled", "lead_id", leadID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
	case errors.Is(err, ErrLLMNotConfigured):
		h.logger.Error("LLM provider not configured", "lead_id", leadID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error(msg, "lead_id", leadID, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
