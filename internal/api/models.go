package api

import (
	"encoding/json"
	"time"

	"github.com/physlab/physlab-api/internal/domain"
)

// UserResponse is the public shape of a user profile.
type UserResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	LoginCount int        `json:"login_count"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TokenResponse carries an issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// SessionResponse is the public shape of a session.
type SessionResponse struct {
	SessionID        string            `json:"session_id"`
	SimulationID     string            `json:"simulation_id"`
	State            string            `json:"state"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          *time.Time        `json:"end_time,omitempty"`
	Snapshots        []domain.Snapshot `json:"snapshots,omitempty"`
	InteractionCount int               `json:"interaction_count"`
	TotalDuration    int64             `json:"total_duration"`
	FinalResults     json.RawMessage   `json:"final_results,omitempty"`
	FinalParameters  json.RawMessage   `json:"final_parameters,omitempty"`
}

// SessionPageResponse is one page of session history.
type SessionPageResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int               `json:"total"`
	Pages    int               `json:"pages"`
}

// AchievementResponse is the public shape of an unlock record.
type AchievementResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Points      int       `json:"points"`
	Rarity      string    `json:"rarity"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// ProgressResponse is the public shape of a saved experiment run.
type ProgressResponse struct {
	ID             string          `json:"id"`
	SimulationID   string          `json:"simulation_id"`
	SimulationName string          `json:"simulation_name"`
	CompletedAt    time.Time       `json:"completed_at"`
	TimeSpent      int64           `json:"time_spent"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	Results        json.RawMessage `json:"results,omitempty"`
	Score          int             `json:"score"`
}

// ProgressListResponse is a bounded progress listing.
type ProgressListResponse struct {
	Progress []ProgressResponse `json:"progress"`
	Count    int                `json:"count"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID.String(),
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		LastLogin:  user.LastLogin,
		LoginCount: user.LoginCount,
		CreatedAt:  user.CreatedAt,
	}
}

func sessionToResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		SessionID:        session.ID.String(),
		SimulationID:     string(session.SimulationID),
		State:            string(session.State),
		StartTime:        session.StartTime,
		EndTime:          session.EndTime,
		Snapshots:        session.Snapshots,
		InteractionCount: session.InteractionCount,
		TotalDuration:    session.TotalDuration,
		FinalResults:     session.FinalResults,
		FinalParameters:  session.FinalParameters,
	}
}

func progressToResponse(p *domain.Progress) ProgressResponse {
	return ProgressResponse{
		ID:             p.ID.String(),
		SimulationID:   string(p.SimulationID),
		SimulationName: p.SimulationName,
		CompletedAt:    p.CompletedAt,
		TimeSpent:      p.TimeSpent,
		Parameters:     p.Parameters,
		Results:        p.Results,
		Score:          p.Score,
	}
}

func achievementToResponse(a *domain.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:          a.ID.String(),
		Type:        string(a.Type),
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Points:      a.Points,
		Rarity:      string(a.Rarity),
		UnlockedAt:  a.UnlockedAt,
	}
}

func achievementsToResponse(achievements []*domain.Achievement) []AchievementResponse {
	responses := make([]AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		responses = append(responses, achievementToResponse(a))
	}
	return responses
}
