package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/util"
	"go.uber.org/zap"
)

// The routes below sit behind RequireSession and RequireAdmin.

// IsAdmin answers true for anyone who got past the admin middleware
// GET /api/admin/is-admin
func (h *Handlers) IsAdmin(c *gin.Context) {
	profile, _ := util.GetProfileFromContext(c)
	roles := models.RoleList{}
	if profile != nil {
		roles = profile.Roles
	}
	c.JSON(http.StatusOK, gin.H{"is_admin": true, "role": roles})
}

// AdminGetPosts pages every post newest first
// GET /api/admin/posts?limit=&skip=
func (h *Handlers) AdminGetPosts(c *gin.Context) {
	posts, err := h.posts.GetAll(c.Request.Context(), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// AdminUpdatePost rewrites any field of a post
// PATCH /api/admin/posts/update/:id
func (h *Handlers) AdminUpdatePost(c *gin.Context) {
	var patch models.AdminPostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	post, err := h.posts.AdminUpdate(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	h.audit(c, "post.update", post.ID)
	c.JSON(http.StatusOK, post.ToResponse())
}

// AdminGetUsers pages accounts
// GET /api/admin/users?limit=&skip=
func (h *Handlers) AdminGetUsers(c *gin.Context) {
	users, err := h.users.GetUsers(c.Request.Context(), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// AdminGetProfiles pages profiles
// GET /api/admin/profiles?limit=&skip=
func (h *Handlers) AdminGetProfiles(c *gin.Context) {
	profiles, err := h.profiles.GetAll(c.Request.Context(), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "profiles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// AdminGetProfile fetches a full profile by id
// GET /api/admin/profiles/fetch/:id
func (h *Handlers) AdminGetProfile(c *gin.Context) {
	profile, err := h.profiles.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AdminUpdateProfile applies a moderator patch. Only owners may change roles.
// A username change is mirrored onto the account.
// PATCH /api/admin/profiles/update/:id
func (h *Handlers) AdminUpdateProfile(c *gin.Context) {
	var patch models.AdminProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if patch.Roles != nil {
		actor, _ := util.GetProfileFromContext(c)
		if actor == nil || !actor.HasRole(models.RoleOwner) {
			util.RespondForbidden(c, "only owners can change roles")
			return
		}
	}
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if len(name) < 3 || len(name) > 30 {
			util.RespondValidationError(c, "username", "username must be 3 to 30 characters")
			return
		}
		patch.Username = &name
	}

	id := c.Param("id")
	profile, err := h.profiles.Patch(c.Request.Context(), id, patch.Columns())
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}
	if patch.Username != nil {
		if err := h.users.UpdateUserFields(c.Request.Context(), id, map[string]interface{}{"username": *patch.Username}); err != nil {
			logger.Log.Error("Profile renamed but account kept its old username",
				zap.String("profile_id", id), zap.Error(err))
		}
	}
	h.audit(c, "profile.update", id)
	c.JSON(http.StatusOK, profile)
}

// AdminGetReports queries the moderation queue
// GET /api/admin/reports?status=&limit=&offset=&sort_by=&sort_order=
func (h *Handlers) AdminGetReports(c *gin.Context) {
	q := repository.ReportQuery{
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
		Page:      util.ParsePage(c, "limit", "offset"),
	}
	if s := c.Query("status"); s != "" {
		status, err := models.ParseReportStatus(s)
		if err != nil {
			util.RespondValidationError(c, "status", "status must be PENDING or RESOLVED")
			return
		}
		q.Status = &status
	}

	reports, err := h.reports.Query(c.Request.Context(), q)
	if err != nil {
		util.RespondWithError(c, err, "reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// AdminGetReport fetches one report
// GET /api/admin/reports/fetch/:id
func (h *Handlers) AdminGetReport(c *gin.Context) {
	report, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err, "report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// AdminUpdateReportStatus moves a report through the queue
// PATCH /api/admin/reports/status/:id
func (h *Handlers) AdminUpdateReportStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	status, err := models.ParseReportStatus(req.Status)
	if err != nil {
		util.RespondValidationError(c, "status", "status must be PENDING or RESOLVED")
		return
	}

	found, err := h.reports.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		util.RespondWithError(c, err, "report")
		return
	}
	if !found {
		util.RespondNotFound(c, "report")
		return
	}
	h.audit(c, "report.status", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CreateAnnouncement publishes a site-wide notice
// POST /api/admin/announcements/new
func (h *Handlers) CreateAnnouncement(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required,max=200"`
		Body  string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	a := &models.Announcement{Title: req.Title, Body: req.Body}
	if err := h.reports.CreateAnnouncement(c.Request.Context(), a); err != nil {
		util.RespondWithError(c, err, "announcement")
		return
	}
	h.audit(c, "announcement.create", a.ID)
	c.JSON(http.StatusCreated, a)
}

// audit logs a moderator action
func (h *Handlers) audit(c *gin.Context, action, targetID string) {
	fields := []zap.Field{zap.String("action", action), zap.String("target_id", targetID)}
	if actor, ok := util.GetProfileFromContext(c); ok {
		fields = append(fields, logger.WithUsername(actor.Username))
	}
	logger.Log.Info("Admin action", fields...)
}
