package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/service/achievement"
	"github.com/physlab/physlab-api/internal/service/auth"
	"github.com/physlab/physlab-api/internal/service/report"
	"github.com/physlab/physlab-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, auth.ErrAccountDisabled):
		return http.StatusForbidden

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors: covers email, achievement and other duplicate
	// sentinels, including achievement.ErrAlreadyAwarded which wraps one.
	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnknownSimulation),
		errors.Is(err, domain.ErrInvalidAchievementType),
		errors.Is(err, domain.ErrInvalidRarity),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrNegativeTimeSpent),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, achievement.ErrInvalidMetric),
		errors.Is(err, achievement.ErrInvalidLimit),
		errors.Is(err, report.ErrSessionStillActive):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, auth.ErrAccountDisabled):
		return "Account is disabled"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrReportNotFound):
		return "Lab report not found"

	case errors.Is(err, store.ErrProgressNotFound):
		return "Progress entry not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, achievement.ErrAlreadyAwarded):
		return "Achievement already awarded"

	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	// Bad request errors
	case errors.Is(err, domain.ErrUnknownSimulation):
		return "Unknown simulation"

	case errors.Is(err, domain.ErrInvalidAchievementType):
		return "Invalid achievement type"

	case errors.Is(err, domain.ErrInvalidRarity):
		return "Invalid achievement rarity"

	case errors.Is(err, domain.ErrInvalidScore):
		return "Score must be between 0 and 100"

	case errors.Is(err, domain.ErrNegativeTimeSpent):
		return "Time spent cannot be negative"

	case errors.Is(err, achievement.ErrInvalidMetric):
		return "Invalid leaderboard metric"

	case errors.Is(err, achievement.ErrInvalidLimit):
		return "Limit must be a positive integer"

	case errors.Is(err, report.ErrSessionStillActive):
		return "Session is still active"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return "Invalid " + validationErr.Field
		}
		return "Validation error"

	case errors.Is(err, domain.ErrInvalidArgument):
		return "Invalid argument"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and sanitized message and
// writes the response, logging the redacted original error. A non-empty
// fallbackMessage overrides the generic message for unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if fallbackMessage != "" && message == "An unexpected error occurred" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError turns a validator.Struct error into a short
// user-facing message naming the failing field without echoing its value.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 {
					return "Invalid " + field + ": " + validationTagMessage(fieldParts[3])
				}
				return "Invalid " + field
			}
		}
	}

	return "Validation error"
}

// validationTagMessage maps validation tags to user-friendly error messages
func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt":
		return "must be greater"
	default:
		return "validation failed"
	}
}
