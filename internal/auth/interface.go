package auth

import (
	"context"

	"github.com/inkvault/backend/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// Handlers and middleware depend on it so tests can run without a database.
type AuthServiceInterface interface {
	// Registration and login
	Register(ctx context.Context, req RegisterRequest) error
	VerifyEmail(ctx context.Context, code string) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error

	// Sessions
	ValidateSession(ctx context.Context, token string) (*models.Session, error)

	// Passwords
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
