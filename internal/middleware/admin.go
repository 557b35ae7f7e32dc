package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/util"
)

// ProfileLookup loads the caller's profile
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// RequireAdmin must run after RequireSession. It loads the caller's profile,
// rejects anyone without an owner or moderator role and leaves the profile
// in the context for the handler.
func RequireAdmin(profiles ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			c.Abort()
			return
		}

		profile, err := profiles.GetByID(c.Request.Context(), userID)
		if err != nil {
			util.RespondWithError(c, err, "profile")
			return
		}
		if !profile.IsAdmin() {
			util.RespondForbidden(c, "admin access required")
			return
		}

		c.Set(util.ContextProfile, profile)
		c.Next()
	}
}
