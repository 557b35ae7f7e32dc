package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/inkvault/backend/internal/errors"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/storage"
	"github.com/inkvault/backend/internal/util"
	"github.com/samber/lo"
)

// GetPublicProfile returns a profile and counts the view
// GET /api/profile/:username/public
func (h *Handlers) GetPublicProfile(c *gin.Context) {
	profile, err := h.profiles.View(c.Request.Context(), c.Param("username"))
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, profile.ToPublic())
}

// LookupProfile returns a profile without counting a view
// GET /api/profile/:username/lookup
func (h *Handlers) LookupProfile(c *gin.Context) {
	profile, err := h.profiles.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, profile.ToPublic())
}

// GetMyProfile returns the caller's full profile
// GET /api/profile/me
func (h *Handlers) GetMyProfile(c *gin.Context) {
	profile, ok := h.caller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile applies an owner patch
// PATCH /api/profile/me
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.Patch(c.Request.Context(), userID, patch.Columns())
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// FollowProfile toggles whether the caller follows :username
// POST /api/profile/:username/follow
func (h *Handlers) FollowProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	followed, err := h.profiles.ToggleFollow(c.Request.Context(), userID, c.Param("username"))
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"followed": followed})
}

// QuickLookup resolves many usernames and ids to profile cards
// POST /api/profile/quicklookup
func (h *Handlers) QuickLookup(c *gin.Context) {
	var req struct {
		Usernames []string `json:"usernames"`
		IDs       []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if len(req.Usernames)+len(req.IDs) > 100 {
		util.RespondBadRequest(c, "at most 100 usernames and ids per lookup")
		return
	}

	profiles, err := h.profiles.GetMany(c.Request.Context(), req.Usernames, req.IDs)
	if err != nil {
		util.RespondWithError(c, err, "profiles")
		return
	}
	cards := lo.Map(profiles, func(p models.Profile, _ int) models.QuickProfile {
		return models.QuickProfile{
			ID:             p.ID,
			Username:       p.Username,
			DisplayName:    p.DisplayName,
			ProfilePicture: p.ProfilePicture,
		}
	})
	c.JSON(http.StatusOK, gin.H{"profiles": cards})
}

// UploadProfilePicture stores a new avatar for the caller
// POST /api/media/me/assets/profile_picture (multipart: file)
func (h *Handlers) UploadProfilePicture(c *gin.Context) {
	h.uploadUserAsset(c, storage.AssetProfilePicture, "profile_picture")
}

// UploadBanner stores a new banner for the caller
// POST /api/media/me/assets/banner (multipart: file)
func (h *Handlers) UploadBanner(c *gin.Context) {
	h.uploadUserAsset(c, storage.AssetBanner, "banner_picture")
}

func (h *Handlers) uploadUserAsset(c *gin.Context, kind storage.UserAssetKind, column string) {
	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.InternalError("uploads are not configured").WithStatus(http.StatusServiceUnavailable))
		return
	}
	profile, ok := h.caller(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSizeBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		util.RespondValidationError(c, "file", "an image file is required")
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		util.RespondWithError(c, err, "media")
		return
	}

	res, err := h.uploader.UploadUserAsset(c.Request.Context(), profile.Username, kind, data)
	if err != nil {
		util.RespondWithError(c, err, "media")
		return
	}

	updated, err := h.profiles.Patch(c.Request.Context(), profile.ID, map[string]interface{}{column: res.URL})
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.URL, "profile": updated.ToPublic()})
}
