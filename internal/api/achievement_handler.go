package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/achievement"
)

// AchievementListResponse pairs a user's unlock records with their totals.
type AchievementListResponse struct {
	Achievements []AchievementResponse `json:"achievements"`
	Summary      achievement.Summary   `json:"summary"`
}

// AwardRequest represents the request body for the administrative award path
type AwardRequest struct {
	UserID      string `json:"user_id"     validate:"required,uuid"`
	Type        string `json:"type"        validate:"required"`
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon"        validate:"required"`
	Points      int    `json:"points"      validate:"gte=0"`
	Rarity      string `json:"rarity"      validate:"omitempty,oneof=common uncommon rare epic legendary"`
}

// LeaderboardResponse is the ranked leaderboard payload.
type LeaderboardResponse struct {
	Metric  string                    `json:"metric"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// AchievementHandler handles achievement HTTP requests
type AchievementHandler struct {
	engine *achievement.Engine
}

// NewAchievementHandler creates a new AchievementHandler
func NewAchievementHandler(engine *achievement.Engine) *AchievementHandler {
	if engine == nil {
		panic("engine cannot be nil")
	}
	return &AchievementHandler{
		engine: engine,
	}
}

// List handles GET /api/achievements requests
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	achievements, err := h.engine.ListForUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list achievements")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AchievementListResponse{
		Achievements: achievementsToResponse(achievements),
		Summary:      achievement.Summarize(achievements),
	})
}

// Leaderboard handles GET /api/achievements/leaderboard requests.
// Supports type (points|achievements, default points) and limit
// (positive integer, default 10) query parameters.
func (h *AchievementHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	metric := achievement.Metric(r.URL.Query().Get("type"))
	if metric == "" {
		metric = achievement.MetricPoints
	}

	limit := achievement.DefaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			HandleAPIError(w, r, achievement.ErrInvalidLimit, "")
			return
		}
		limit = parsed
	}

	entries, err := h.engine.Rank(r.Context(), metric, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to rank leaderboard")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LeaderboardResponse{
		Metric:  string(metric),
		Entries: entries,
	})
}

// Award handles POST /api/achievements/award requests (admin only).
func (h *AchievementHandler) Award(w http.ResponseWriter, r *http.Request) {
	var req AwardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user_id")
		return
	}

	// Points zero-value to 0; rarity defaults to common when omitted.
	if req.Rarity == "" {
		req.Rarity = string(domain.RarityCommon)
	}

	awarded, err := h.engine.Award(r.Context(), targetID, domain.AchievementTemplate{
		Type:        domain.AchievementType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Points:      req.Points,
		Rarity:      domain.Rarity(req.Rarity),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to award achievement")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, achievementToResponse(awarded))
}
