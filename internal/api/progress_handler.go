package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/progress"
)

// SaveProgressRequest represents the request body for saving a progress entry
type SaveProgressRequest struct {
	SimulationID   string          `json:"simulation_id" validate:"required"`
	SimulationName string          `json:"simulation_name,omitempty"`
	TimeSpent      int64           `json:"time_spent" validate:"gte=0"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	Results        json.RawMessage `json:"results,omitempty"`
	Score          int             `json:"score" validate:"gte=0,lte=100"`
}

// ProgressHandler handles progress tracking HTTP requests
type ProgressHandler struct {
	service *progress.Service
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(service *progress.Service) *ProgressHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	return &ProgressHandler{service: service}
}

// Save handles POST /api/progress requests
func (h *ProgressHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req SaveProgressRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	entry, err := h.service.Save(
		r.Context(),
		userID,
		domain.SimulationID(req.SimulationID),
		req.SimulationName,
		req.TimeSpent,
		req.Parameters,
		req.Results,
		req.Score,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, progressToResponse(entry))
}

// List handles GET /api/progress requests.
// Supports simulation_id and limit query parameters.
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.service.List(
		r.Context(),
		userID,
		domain.SimulationID(r.URL.Query().Get("simulation_id")),
		limit,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list progress")
		return
	}

	responses := make([]ProgressResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, progressToResponse(entry))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProgressListResponse{
		Progress: responses,
		Count:    len(responses),
	})
}

// Stats handles GET /api/progress/stats requests
func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	report, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute progress statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

// Delete handles DELETE /api/progress/{progressID} requests
func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, progressID, ok := requireUserAndPathUUID(w, r, "progressID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), progressID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete progress entry")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"message": "Progress entry deleted",
	})
}
