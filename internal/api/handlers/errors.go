package handlers

import (
	"errors"
	"net/http"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"

	"github.com/gin-gonic/gin"
)

// respondError maps a client-layer error onto the gateway's error envelope.
// Backend statuses pass through; payloads that break the backend contract
// become 502.
func (h *Handlers) respondError(c *gin.Context, err error, message string) {
	var vErr *schema.ValidationError
	var httpErr *client.HTTPError

	switch {
	case errors.As(err, &vErr):
		h.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Backend payload failed validation")
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UPSTREAM_CONTRACT_VIOLATION",
				Message: message,
				Details: issueDetails(vErr),
			},
		})
	case errors.As(err, &httpErr):
		c.JSON(httpErr.StatusCode, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    statusCode(httpErr.StatusCode),
				Message: httpErr.Message,
			},
		})
	case errors.Is(err, client.ErrInvalidArgument):
		badRequest(c, err.Error())
	default:
		h.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
	}
}

func issueDetails(vErr *schema.ValidationError) map[string]string {
	details := make(map[string]string, len(vErr.Issues))
	for _, issue := range vErr.Issues {
		path := issue.Path
		if path == "" {
			path = "payload"
		}
		details[path] = issue.Message
	}
	return details
}

func statusCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "AUTHENTICATION_ERROR"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	default:
		return "UPSTREAM_ERROR"
	}
}
