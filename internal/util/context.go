package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/models"
)

// Context keys set by the session and admin middleware
const (
	ContextUserID  = "user_id"
	ContextSession = "session"
	ContextProfile = "profile"
)

// GetUserIDFromContext extracts the user ID from the Gin context.
// Returns the user ID and true if found, or empty string and false if not authenticated.
// If the user is not authenticated, it automatically responds with 401 Unauthorized.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user ID in context"})
		return "", false
	}
	return userIDStr, true
}

// GetSessionFromContext returns the session validated by the middleware
func GetSessionFromContext(c *gin.Context) (*models.Session, bool) {
	v, exists := c.Get(ContextSession)
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	session, ok := v.(*models.Session)
	return session, ok
}

// GetProfileFromContext returns the caller's profile when the admin middleware
// already loaded it. It never writes a response.
func GetProfileFromContext(c *gin.Context) (*models.Profile, bool) {
	v, exists := c.Get(ContextProfile)
	if !exists {
		return nil, false
	}
	profile, ok := v.(*models.Profile)
	return profile, ok
}
