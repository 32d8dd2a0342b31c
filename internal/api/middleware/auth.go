package middleware

import (
	"context"
	"net/http"
	"strings"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"

	"github.com/gin-gonic/gin"
)

// ForwardCredentials requires the caller to present a bearer token or a
// session cookie and stores them in the request context, so backend calls
// made while serving the request act as the caller.
func ForwardCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		cookie := c.GetHeader("Cookie")

		if authHeader == "" && cookie == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "AUTHENTICATION_ERROR",
					Message: "Missing authorization header",
				},
			})
			c.Abort()
			return
		}

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error: models.ErrorDetail{
						Code:    "AUTHENTICATION_ERROR",
						Message: "Invalid authorization header format",
					},
				})
				c.Abort()
				return
			}
		}

		ctx := client.WithForwardedCredentials(c.Request.Context(), c.Request.Header)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// VerifyCredentials confirms the forwarded credentials with the backend
// before serving routes that answer from local state. It must run after
// ForwardCredentials. A rejected credential answers 401; any other failure
// answers 503 so the request never proceeds unverified.
func VerifyCredentials(verify func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := verify(c.Request.Context())
		if err == nil {
			c.Next()
			return
		}

		switch client.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "AUTHENTICATION_ERROR",
					Message: "Credentials rejected by backend",
				},
			})
		default:
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "SERVICE_UNAVAILABLE",
					Message: "Could not verify credentials",
				},
			})
		}
		c.Abort()
	}
}
