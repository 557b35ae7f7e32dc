package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/util"
)

// GetUserPosts lists one author's posts newest first
// GET /api/user/:username/posts?limit=&skip=&tags=
func (h *Handlers) GetUserPosts(c *gin.Context) {
	posts, err := h.posts.GetAllByUser(c.Request.Context(), c.Param("username"),
		util.ParseTags(c.Query("tags")), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// GetSettings returns the caller's preferences, creating defaults on first read
// GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, ok := h.loadSettings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings applies a settings patch
// PATCH /api/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if patch.PageLength != nil && (*patch.PageLength < 1 || *patch.PageLength > repository.MaxPageSize) {
		util.RespondValidationError(c, "page_length", "page_length must be between 1 and 100")
		return
	}

	settings, ok := h.loadSettings(c)
	if !ok {
		return
	}
	patch.Apply(settings)
	if err := h.users.SaveSettings(c.Request.Context(), settings); err != nil {
		util.RespondWithError(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handlers) loadSettings(c *gin.Context) (*models.Settings, bool) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return nil, false
	}
	settings, err := h.users.GetSettings(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultSettings(userID), true
	}
	if err != nil {
		util.RespondWithError(c, err, "settings")
		return nil, false
	}
	return settings, true
}
