package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/util"
)

// bearerToken pulls the token out of an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireSession validates the bearer token and stores the user id and
// session in the context. Expired sessions are removed by the auth service.
func RequireSession(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondUnauthorized(c, "missing bearer token")
			return
		}

		session, err := authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			util.RespondWithError(c, err, "session")
			return
		}

		c.Set(util.ContextUserID, session.UserID)
		c.Set(util.ContextSession, session)
		c.Next()
	}
}

// OptionalSession behaves like RequireSession when a token is present and
// lets anonymous requests through untouched
func OptionalSession(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		if session, err := authService.ValidateSession(c.Request.Context(), token); err == nil {
			c.Set(util.ContextUserID, session.UserID)
			c.Set(util.ContextSession, session)
		}
		c.Next()
	}
}
