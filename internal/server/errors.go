package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	engagementdomain "github.com/brookejlacey/flowback/internal/engagement/domain"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	submissiondomain "github.com/brookejlacey/flowback/internal/submission/domain"
	"github.com/brookejlacey/flowback/internal/token"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware maps domain errors pushed onto the gin error
// stack into a single JSON error envelope. Handlers call AbortWithError
// and never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, submissiondomain.ErrDuplicateSubmission):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "submission already exists for this campaign, creator and video",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		// Includes provider failures and expired credentials: the caller
		// cannot fix those, per the metrics endpoint contract they are 500s.
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, submissiondomain.ErrInvalidInput),
		errors.Is(err, submissiondomain.ErrInvalidVideoURL),
		errors.Is(err, platformdomain.ErrUnsupportedPlatform):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, submissiondomain.ErrSubmissionNotFound),
		errors.Is(err, engagementdomain.ErrSubmissionNotFound),
		errors.Is(err, engagementdomain.ErrConnectionNotFound),
		errors.Is(err, platformdomain.ErrVideoNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels request-log entries without leaking error
// detail into the access log.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case isValidationError(err):
		return "validation_error", "invalid_request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized", "unauthorized"
	case errors.Is(err, submissiondomain.ErrDuplicateSubmission):
		return "conflict", "duplicate_submission"
	case isNotFoundError(err):
		return "not_found", "not_found"
	case errors.Is(err, token.ErrCredentialExpired):
		return "internal_error", "credential_expired"
	default:
		var providerErr *platformdomain.ProviderError
		if errors.As(err, &providerErr) {
			return "internal_error", "provider_error"
		}
		return "internal_error", "internal_error"
	}
}
