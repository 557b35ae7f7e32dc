package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/util"
	"go.uber.org/zap"
)

// CreateReport files a report against a post or a user
// POST /api/reporting/new
func (h *Handlers) CreateReport(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req struct {
		TargetID   string  `json:"target_id" binding:"required"`
		ReportType string  `json:"report_type" binding:"required"`
		Reason     *string `json:"reason" binding:"omitempty,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	reportType, err := models.ParseReportType(req.ReportType)
	if err != nil {
		util.RespondValidationError(c, "report_type", "report_type must be POST or USER")
		return
	}

	// The target must exist
	switch reportType {
	case models.ReportTypePost:
		_, err = h.posts.GetByID(c.Request.Context(), req.TargetID)
	case models.ReportTypeUser:
		_, err = h.profiles.GetByID(c.Request.Context(), req.TargetID)
	}
	if err != nil {
		util.RespondWithError(c, err, strings.ToLower(string(reportType)))
		return
	}

	report := &models.Report{
		CreatorID: userID,
		TargetID:  req.TargetID,
		Type:      reportType,
		Reason:    req.Reason,
		Status:    models.ReportPending,
	}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		util.RespondWithError(c, err, "report")
		return
	}

	logger.Log.Info("Report filed",
		zap.String("report_id", report.ID),
		zap.String("target_id", report.TargetID),
		zap.String("report_type", string(report.Type)),
	)
	c.JSON(http.StatusCreated, report)
}

// GetAnnouncements lists announcements newest first
// GET /api/announcements?limit=&skip=
func (h *Handlers) GetAnnouncements(c *gin.Context) {
	announcements, err := h.reports.GetAnnouncements(c.Request.Context(), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "announcements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": announcements})
}
