// Package handlers holds the gin HTTP handlers of the API. Handlers parse and
// validate requests, call the services and project models onto wire shapes.
package handlers

import (
	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/services"
	"github.com/inkvault/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth     auth.AuthServiceInterface
	posts    *services.PostService
	profiles *services.ProfileService
	comments *services.CommentService
	users    repository.UserRepository
	reports  repository.ReportRepository
	uploader storage.MediaUploader

	maxUploadBytes int64
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	authService auth.AuthServiceInterface,
	posts *services.PostService,
	profiles *services.ProfileService,
	comments *services.CommentService,
	users repository.UserRepository,
	reports repository.ReportRepository,
) *Handlers {
	return &Handlers{
		auth:           authService,
		posts:          posts,
		profiles:       profiles,
		comments:       comments,
		users:          users,
		reports:        reports,
		maxUploadBytes: 25 << 20,
	}
}

// SetUploader sets the media uploader. Upload routes answer 503 without one.
func (h *Handlers) SetUploader(uploader storage.MediaUploader) {
	h.uploader = uploader
}

// SetMaxUploadBytes caps the multipart body of upload routes
func (h *Handlers) SetMaxUploadBytes(n int64) {
	if n > 0 {
		h.maxUploadBytes = n
	}
}
