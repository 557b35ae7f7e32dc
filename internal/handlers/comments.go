package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/util"
)

type commentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// bindContent reads a comment body and answers 400 itself on failure
func bindContent(c *gin.Context) (string, bool) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return "", false
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.RespondValidationError(c, "content", "content cannot be empty")
		return "", false
	}
	return content, true
}

// caller loads the profile of the authenticated user
func (h *Handlers) caller(c *gin.Context) (*models.Profile, bool) {
	if profile, ok := util.GetProfileFromContext(c); ok {
		return profile, true
	}
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return nil, false
	}
	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return nil, false
	}
	return profile, true
}

// GetComments lists a post's comments newest first
// GET /api/comment/fetch/:id
func (h *Handlers) GetComments(c *gin.Context) {
	comments, err := h.comments.GetForPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err, "comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment adds a top level comment to a post
// POST /api/comment/create/:id
func (h *Handlers) CreateComment(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	profile, ok := h.caller(c)
	if !ok {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), c.Param("id"), profile.Username, content)
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// LikeComment toggles the caller's like on a comment
// POST /api/comment/:id/like
func (h *Handlers) LikeComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	liked, err := h.comments.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err, "comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// DislikeComment toggles the caller's dislike on a comment
// POST /api/comment/:id/dislike
func (h *Handlers) DislikeComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	disliked, err := h.comments.ToggleDislike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err, "comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"disliked": disliked})
}

// DeleteComment removes a comment and its replies. Authors and admins only.
// DELETE /api/comment/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	profile, ok := h.caller(c)
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), c.Param("id"), profile); err != nil {
		util.RespondWithError(c, err, "comment")
		return
	}
	logger.Log.Info("Comment deleted", logger.WithCommentID(c.Param("id")), logger.WithUsername(profile.Username))
	c.Status(http.StatusNoContent)
}

// GetReplies returns the reply tree of a comment
// GET /api/comment/reply/:id
func (h *Handlers) GetReplies(c *gin.Context) {
	replies, err := h.comments.GetReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err, "comment")
		return
	}
	c.JSON(http.StatusOK, replies)
}

// CreateReply inserts a reply under a comment or under any reply
// POST /api/comment/reply/:id
func (h *Handlers) CreateReply(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	profile, ok := h.caller(c)
	if !ok {
		return
	}

	commentID, reply, err := h.comments.Reply(c.Request.Context(), c.Param("id"), profile.Username, content)
	if err != nil {
		util.RespondWithError(c, err, "parent")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment_id": commentID, "reply": reply})
}

// LikeReply toggles the caller's like on a reply
// POST /api/comment/reply/:id/like
func (h *Handlers) LikeReply(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	liked, err := h.comments.ToggleReplyLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err, "reply")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// DislikeReply toggles the caller's dislike on a reply
// POST /api/comment/reply/:id/dislike
func (h *Handlers) DislikeReply(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	disliked, err := h.comments.ToggleReplyDislike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err, "reply")
		return
	}
	c.JSON(http.StatusOK, gin.H{"disliked": disliked})
}
