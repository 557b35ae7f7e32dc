package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already taken")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrSessionExpired     = errors.New("session expired")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const (
	// MinPasswordLength is enforced on every password write
	MinPasswordLength = 8
	// MaxTokenLifetime caps a token no matter how often its session slides
	MaxTokenLifetime = 90 * 24 * time.Hour
	// slideThreshold skips the expiry write when the session was extended recently
	slideThreshold = time.Minute
)

// passwordCost is lowered by tests
var passwordCost = bcrypt.DefaultCost

// Mailer delivers verification and reset codes
type Mailer interface {
	SendVerificationCode(ctx context.Context, toEmail, username, code string) error
	SendPasswordResetCode(ctx context.Context, toEmail, username, code string) error
}

// Service handles registration, sessions and passwords
type Service struct {
	jwtSecret  []byte
	sessionTTL time.Duration
	users      repository.UserRepository
	sessions   repository.SessionRepository
	mailer     Mailer
	now        func() time.Time
}

// NewService creates a new authentication service
func NewService(jwtSecret []byte, sessionTTL time.Duration, users repository.UserRepository, sessions repository.SessionRepository, mailer Mailer) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		users:      users,
		sessions:   sessions,
		mailer:     mailer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	SessionID string      `json:"session_id"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest accepts either the username or the email as login
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HashPassword returns the bcrypt hash stored for a password
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register stores a pending registration and mails its verification code.
// Nothing is left behind when the mail cannot be sent.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	taken, err := s.users.UsernameTaken(ctx, username)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if taken {
		return ErrUsernameExists
	}
	taken, err = s.users.EmailTaken(ctx, email)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if taken {
		return ErrEmailExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}

	pending := &models.PendingUser{Email: email, Username: username, PasswordHash: hash}
	if err := s.users.CreatePending(ctx, pending); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to store registration: %w", err)
	}

	code, err := models.NewCode(email, username, models.CodeEmailVerify)
	if err == nil {
		err = s.sessions.CreateCode(ctx, code)
	}
	if err == nil {
		err = s.mailer.SendVerificationCode(ctx, email, username, code.Code)
	}
	if err != nil {
		if derr := s.users.DeletePending(ctx, pending.ID); derr != nil {
			logger.WarnWithFields("Failed to drop pending user after failed registration", derr)
		}
		if code != nil {
			_ = s.sessions.DeleteCode(ctx, code.ID)
		}
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	logger.Log.Info("Registration pending verification", logger.WithUsername(username))
	return nil
}

// VerifyEmail turns a pending registration into an account and signs it in
func (s *Service) VerifyEmail(ctx context.Context, codeValue string) (*AuthResponse, error) {
	code, err := s.validCode(ctx, codeValue, models.CodeEmailVerify)
	if err != nil {
		return nil, err
	}
	pending, err := s.users.GetPendingByEmail(ctx, code.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        pending.Email,
		Username:     pending.Username,
		PasswordHash: pending.PasswordHash,
		Verified:     true,
		LastLogin:    now,
	}
	if err := s.users.CreateAccount(ctx, user, models.NewProfile(user), models.DefaultSettings(user.ID)); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.users.DeletePending(ctx, pending.ID); err != nil {
		logger.WarnWithFields("Failed to delete pending user", err)
	}
	if err := s.sessions.DeleteCode(ctx, code.ID); err != nil {
		logger.WarnWithFields("Failed to delete verification code", err)
	}

	logger.Log.Info("Account verified", logger.WithUserID(user.ID), logger.WithUsername(user.Username))
	return s.createSession(ctx, user)
}

// Login authenticates with username or email and opens a session
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = s.now()
	if err := s.users.UpdateUserFields(ctx, user.ID, map[string]interface{}{"last_login": user.LastLogin}); err != nil {
		logger.WarnWithFields("Failed to record last login", err)
	}
	return s.createSession(ctx, user)
}

// Logout ends the session behind token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

type sessionClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func (s *Service) createSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	now := s.now()
	sessionID := uuid.NewString()

	claims := sessionClaims{
		UserID:    user.ID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(MaxTokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	session := &models.Session{
		ID:        sessionID,
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		SessionID: sessionID,
		User:      *user,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ValidateSession checks the token signature and the stored session, drops
// the session once expired and otherwise slides its expiry forward
func (s *Service) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if session.ID != claims.SessionID || session.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	now := s.now()
	if session.IsExpired(now) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			logger.WarnWithFields("Failed to delete expired session", err)
		}
		return nil, ErrSessionExpired
	}

	next := now.Add(s.sessionTTL)
	if next.Sub(session.ExpiresAt) > slideThreshold {
		if err := s.sessions.Extend(ctx, session.ID, next); err != nil {
			logger.Warn("Failed to extend session", zap.String("session_id", session.ID), logger.WithError(err))
		} else {
			session.ExpiresAt = next
		}
	}
	return session, nil
}

// RequestPasswordReset mails a reset code. Unknown emails succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := s.sessions.DeleteCodesFor(ctx, user.Email, models.CodePasswordReset); err != nil {
		logger.WarnWithFields("Failed to clear previous reset codes", err)
	}
	code, err := models.NewCode(user.Email, user.Username, models.CodePasswordReset)
	if err != nil {
		return err
	}
	if err := s.sessions.CreateCode(ctx, code); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return s.mailer.SendPasswordResetCode(ctx, user.Email, user.Username, code.Code)
}

// ResetPassword sets a new password when email and code match. Every open
// session of the user is closed.
func (s *Service) ResetPassword(ctx context.Context, email, codeValue, newPassword string) error {
	code, err := s.validCode(ctx, codeValue, models.CodePasswordReset)
	if err != nil {
		return err
	}
	if !strings.EqualFold(code.Email, strings.TrimSpace(email)) {
		return ErrInvalidCode
	}
	user, err := s.users.GetUserByEmail(ctx, code.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	if err := s.sessions.DeleteCode(ctx, code.ID); err != nil {
		logger.WarnWithFields("Failed to delete reset code", err)
	}
	if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		logger.WarnWithFields("Failed to close sessions after reset", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	return s.setPassword(ctx, userID, next)
}

func (s *Service) setPassword(ctx context.Context, userID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUserFields(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// validCode loads a live code of the given type. Expired codes are deleted.
func (s *Service) validCode(ctx context.Context, value string, codeType models.CodeType) (*models.Code, error) {
	code, err := s.sessions.GetCode(ctx, strings.TrimSpace(value), codeType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if code.IsExpired(s.now()) {
		_ = s.sessions.DeleteCode(ctx, code.ID)
		return nil, ErrInvalidCode
	}
	return code, nil
}
