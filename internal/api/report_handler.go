package api

import (
	"net/http"
	"time"

	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/report"
)

// CreateReportRequest represents the request body for drafting a report.
type CreateReportRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Title     string `json:"title,omitempty" validate:"omitempty,max=200"`
}

// UpdateReportRequest represents the request body for editing a report.
// Omitted fields are left unchanged.
type UpdateReportRequest struct {
	Title       *string             `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Objective   *string             `json:"objective,omitempty"   validate:"omitempty,min=1"`
	Hypothesis  *string             `json:"hypothesis,omitempty"`
	Methodology *string             `json:"methodology,omitempty"`
	Experiments []domain.Experiment `json:"experiments,omitempty"`
	Conclusion  *string             `json:"conclusion,omitempty"`
	Status      *string             `json:"status,omitempty" validate:"omitempty,oneof=draft completed reviewed approved"`
}

// ReportResponse is the public shape of a lab report.
type ReportResponse struct {
	ReportID     string              `json:"report_id"`
	SimulationID string              `json:"simulation_id"`
	Title        string              `json:"title"`
	Objective    string              `json:"objective"`
	Hypothesis   string              `json:"hypothesis,omitempty"`
	Methodology  string              `json:"methodology,omitempty"`
	Experiments  []domain.Experiment `json:"experiments,omitempty"`
	Conclusion   string              `json:"conclusion,omitempty"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ReportHandler handles lab report HTTP requests
type ReportHandler struct {
	reportService *report.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *report.Service) *ReportHandler {
	if reportService == nil {
		panic("reportService cannot be nil")
	}
	return &ReportHandler{
		reportService: reportService,
	}
}

// Create handles POST /api/reports requests
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateReportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	sessionID, err := getRequestUUID(req.SessionID, "session_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	created, err := h.reportService.CreateFromSession(r.Context(), userID, sessionID, req.Title)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create report")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, reportToResponse(created))
}

// List handles GET /api/reports requests
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	reports, err := h.reportService.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reports")
		return
	}

	responses := make([]ReportResponse, 0, len(reports))
	for _, rep := range reports {
		responses = append(responses, reportToResponse(rep))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// Get handles GET /api/reports/{reportID} requests
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, reportID, ok := requireUserAndPathUUID(w, r, "reportID")
	if !ok {
		return
	}

	found, err := h.reportService.Get(r.Context(), reportID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load report")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(found))
}

// Update handles PUT /api/reports/{reportID} requests
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, reportID, ok := requireUserAndPathUUID(w, r, "reportID")
	if !ok {
		return
	}

	var req UpdateReportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	existing, err := h.reportService.Get(r.Context(), reportID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load report")
		return
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Objective != nil {
		existing.Objective = *req.Objective
	}
	if req.Hypothesis != nil {
		existing.Hypothesis = *req.Hypothesis
	}
	if req.Methodology != nil {
		existing.Methodology = *req.Methodology
	}
	if req.Experiments != nil {
		existing.Experiments = req.Experiments
	}
	if req.Conclusion != nil {
		existing.Conclusion = *req.Conclusion
	}
	if req.Status != nil {
		existing.Status = domain.ReportStatus(*req.Status)
	}

	updated, err := h.reportService.Update(r.Context(), existing)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update report")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(updated))
}

func reportToResponse(rep *domain.LabReport) ReportResponse {
	return ReportResponse{
		ReportID:     rep.ID.String(),
		SimulationID: string(rep.SimulationID),
		Title:        rep.Title,
		Objective:    rep.Objective,
		Hypothesis:   rep.Hypothesis,
		Methodology:  rep.Methodology,
		Experiments:  rep.Experiments,
		Conclusion:   rep.Conclusion,
		Status:       string(rep.Status),
		CreatedAt:    rep.CreatedAt,
		UpdatedAt:    rep.UpdatedAt,
	}
}
