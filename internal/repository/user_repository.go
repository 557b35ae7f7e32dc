package repository

import (
	"context"
	"time"

	"github.com/inkvault/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles credentials, pending registrations and settings
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUserByLogin matches either the username or the email
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateUserFields(ctx context.Context, userID string, fields map[string]interface{}) error
	GetUsers(ctx context.Context, page Page) ([]models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)

	CreatePending(ctx context.Context, pending *models.PendingUser) error
	GetPendingByEmail(ctx context.Context, email string) (*models.PendingUser, error)
	DeletePending(ctx context.Context, id string) error
	// RemovePendingOlderThan deletes registrations created before cutoff
	RemovePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error

	// CreateAccount writes a verified user with its profile and settings atomically
	CreateAccount(ctx context.Context, user *models.User, profile *models.Profile, settings *models.Settings) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", login, login).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(user).Select("*").Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateUserFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" || len(fields) == 0 {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetUsers(ctx context.Context, page Page) ([]models.User, error) {
	var users []models.User
	err := page.Normalize().apply(r.db.WithContext(ctx).Order("created_at DESC")).Find(&users).Error
	return users, err
}

// UsernameTaken checks verified users and pending registrations
func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.taken(ctx, "LOWER(username) = LOWER(?)", username)
}

// EmailTaken checks verified users and pending registrations
func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.taken(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) taken(ctx context.Context, cond string, value string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, value).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.PendingUser{}).Where(cond, value).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) CreatePending(ctx context.Context, pending *models.PendingUser) error {
	if pending == nil {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(pending).Error)
}

func (r *userRepository) GetPendingByEmail(ctx context.Context, email string) (*models.PendingUser, error) {
	var pending models.PendingUser
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&pending).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pending, nil
}

func (r *userRepository) DeletePending(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PendingUser{}).Error
}

func (r *userRepository) RemovePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.PendingUser{})
	return res.RowsAffected, res.Error
}

func (r *userRepository) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	var settings models.Settings
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&settings).Error; err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (r *userRepository) SaveSettings(ctx context.Context, settings *models.Settings) error {
	if settings == nil || settings.ID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Save(settings).Error
}

func (r *userRepository) CreateAccount(ctx context.Context, user *models.User, profile *models.Profile, settings *models.Settings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err)
		}
		if err := tx.Create(profile).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Create(settings).Error)
	})
}
