package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/session"
	"github.com/physlab/physlab-api/internal/service/stats"
	"github.com/physlab/physlab-api/internal/store"
)

// StartSessionRequest represents the request body for starting a session
type StartSessionRequest struct {
	SimulationID string          `json:"simulation_id" validate:"required"`
	DeviceInfo   json.RawMessage `json:"device_info,omitempty"`
}

// SnapshotRequest represents the request body for recording a snapshot
type SnapshotRequest struct {
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Results    json.RawMessage `json:"results,omitempty"`
	UserAction string          `json:"user_action,omitempty"`
}

// SnapshotResponse is returned after a snapshot append.
type SnapshotResponse struct {
	Interactions int `json:"interactions"`
}

// EndSessionRequest represents the request body for ending a session
type EndSessionRequest struct {
	FinalResults    json.RawMessage `json:"final_results,omitempty"`
	FinalParameters json.RawMessage `json:"final_parameters,omitempty"`
}

// EndSessionResponse is returned after a session ends.
type EndSessionResponse struct {
	Duration     int64                 `json:"duration"`
	Interactions int                   `json:"interactions"`
	Unlocked     []AchievementResponse `json:"unlocked_achievements,omitempty"`
}

// AnalyticsResponse combines overall and per-simulation statistics.
type AnalyticsResponse struct {
	Overall       stats.Summary             `json:"overall"`
	PerSimulation []stats.SimulationSummary `json:"per_simulation"`
}

// SessionHandler handles session lifecycle HTTP requests
type SessionHandler struct {
	manager    *session.Manager
	aggregator *stats.Aggregator
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(manager *session.Manager, aggregator *stats.Aggregator) *SessionHandler {
	if manager == nil {
		panic("manager cannot be nil")
	}
	if aggregator == nil {
		panic("aggregator cannot be nil")
	}
	return &SessionHandler{
		manager:    manager,
		aggregator: aggregator,
	}
}

// Start handles POST /api/sessions/start requests
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	started, err := h.manager.Start(r.Context(), userID, domain.SimulationID(req.SimulationID), req.DeviceInfo)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(started))
}

// Snapshot handles POST /api/sessions/{sessionID}/snapshot requests
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req SnapshotRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	count, err := h.manager.AddSnapshot(r.Context(), sessionID, userID, req.Parameters, req.Results, req.UserAction)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record snapshot")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SnapshotResponse{Interactions: count})
}

// End handles POST /api/sessions/{sessionID}/end requests
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req EndSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := h.manager.End(r.Context(), sessionID, userID, req.FinalResults, req.FinalParameters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to end session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EndSessionResponse{
		Duration:     result.Session.TotalDuration,
		Interactions: result.Session.InteractionCount,
		Unlocked:     achievementsToResponse(result.Unlocked),
	})
}

// List handles GET /api/sessions requests.
// Supports simulation_id, page and limit query parameters.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	filter := store.SessionFilter{
		SimulationID: domain.SimulationID(r.URL.Query().Get("simulation_id")),
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid page parameter")
			return
		}
		filter.Page = page
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}

	page, err := h.manager.List(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sessions")
		return
	}

	sessions := make([]SessionResponse, 0, len(page.Sessions))
	for _, s := range page.Sessions {
		sessions = append(sessions, sessionToResponse(s))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionPageResponse{
		Sessions: sessions,
		Page:     page.Page,
		Limit:    page.Limit,
		Total:    page.Total,
		Pages:    page.Pages,
	})
}

// Get handles GET /api/sessions/{sessionID} requests
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	found, err := h.manager.Get(r.Context(), sessionID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(found))
}

// Analytics handles GET /api/sessions/analytics requests
func (h *SessionHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	overall, err := h.aggregator.ForUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	perSimulation, err := h.aggregator.PerSimulation(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AnalyticsResponse{
		Overall:       *overall,
		PerSimulation: perSimulation,
	})
}
