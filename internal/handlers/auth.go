package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/util"
)

// Register starts a registration and mails the verification code
// POST /api/user/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.Register(c.Request.Context(), req); err != nil {
		util.RespondWithError(c, err, "user")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent"})
}

// VerifyEmail turns a pending registration into an account and logs it in
// GET /api/user/verify/:code
func (h *Handlers) VerifyEmail(c *gin.Context) {
	resp, err := h.auth.VerifyEmail(c.Request.Context(), c.Param("code"))
	if err != nil {
		util.RespondWithError(c, err, "verification code")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login accepts a username or email with a password
// POST /api/user/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		util.RespondWithError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout deletes the caller's session
// POST /api/user/logout
func (h *Handlers) Logout(c *gin.Context) {
	session, ok := util.GetSessionFromContext(c)
	if !ok {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), session.Token); err != nil {
		util.RespondWithError(c, err, "session")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession returns the validated session, expiry already slid forward
// GET /api/user/session
func (h *Handlers) GetSession(c *gin.Context) {
	session, ok := util.GetSessionFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"user_uuid":  session.UserID,
		"expires_at": session.ExpiresAt,
	})
}

// RequestPasswordReset mails a reset code. It answers the same way whether
// or not the email is known.
// POST /api/user/request_password_reset
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		logger.WarnWithFields("Password reset request failed", err)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "if the email exists a code was sent"})
}

// ResetPassword sets a new password using an emailed code
// POST /api/user/reset_password
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.Code, req.Password); err != nil {
		util.RespondWithError(c, err, "user")
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangePassword requires the current password
// POST /api/settings/change_password
func (h *Handlers) ChangePassword(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		util.RespondWithError(c, err, "user")
		return
	}
	c.Status(http.StatusNoContent)
}
