package repository

import (
	"context"
	"time"

	"github.com/inkvault/backend/internal/models"
	"gorm.io/gorm"
)

// SessionRepository stores bearer sessions and emailed codes
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	// Extend moves the expiry of one session
	Extend(ctx context.Context, sessionID string, expiresAt time.Time) error
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)

	CreateCode(ctx context.Context, code *models.Code) error
	GetCode(ctx context.Context, code string, codeType models.CodeType) (*models.Code, error)
	DeleteCode(ctx context.Context, id string) error
	DeleteCodesFor(ctx context.Context, email string, codeType models.CodeType) error
	RemoveExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error
}

func (r *sessionRepository) Extend(ctx context.Context, sessionID string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("expires_at", expiresAt).Error
}

func (r *sessionRepository) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) CreateCode(ctx context.Context, code *models.Code) error {
	if code == nil {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(code).Error)
}

func (r *sessionRepository) GetCode(ctx context.Context, code string, codeType models.CodeType) (*models.Code, error) {
	var c models.Code
	err := r.db.WithContext(ctx).Where("code = ? AND code_type = ?", code, codeType).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *sessionRepository) DeleteCode(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Code{}).Error
}

func (r *sessionRepository) DeleteCodesFor(ctx context.Context, email string, codeType models.CodeType) error {
	return r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND code_type = ?", email, codeType).
		Delete(&models.Code{}).Error
}

func (r *sessionRepository) RemoveExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Code{})
	return res.RowsAffected, res.Error
}
