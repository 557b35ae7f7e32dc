package repository

import (
	"context"

	"github.com/inkvault/backend/internal/models"
	"gorm.io/gorm"
)

// ProfileRepository handles all database operations for profiles
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	// GetMany returns profiles matching any of the usernames or ids
	GetMany(ctx context.Context, usernames, ids []string) ([]models.Profile, error)
	GetAll(ctx context.Context, page Page) ([]models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
	// UpdateFields applies column updates to one profile
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	IncrementViews(ctx context.Context, id string) error
	// SaveFollow writes the follow sets of both sides in one transaction
	SaveFollow(ctx context.Context, follower, target *models.Profile) error
	Delete(ctx context.Context, id string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.ID == "" {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepository) GetMany(ctx context.Context, usernames, ids []string) ([]models.Profile, error) {
	var profiles []models.Profile
	if len(usernames) == 0 && len(ids) == 0 {
		return profiles, nil
	}
	q := r.db.WithContext(ctx)
	switch {
	case len(usernames) > 0 && len(ids) > 0:
		q = q.Where("username IN ? OR id IN ?", usernames, ids)
	case len(usernames) > 0:
		q = q.Where("username IN ?", usernames)
	default:
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&profiles).Error
	return profiles, err
}

func (r *profileRepository) GetAll(ctx context.Context, page Page) ([]models.Profile, error) {
	var profiles []models.Profile
	err := page.Normalize().apply(r.db.WithContext(ctx).Order("created_at DESC")).Find(&profiles).Error
	return profiles, err
}

func (r *profileRepository) Save(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.ID == "" {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(profile).Select("*").Updates(profile)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if id == "" || len(fields) == 0 {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) SaveFollow(ctx context.Context, follower, target *models.Profile) error {
	if follower == nil || target == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).Where("id = ?", follower.ID).
			Update("following", follower.Following).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("id = ?", target.ID).
			Update("followers", target.Followers).Error
	})
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Profile{}).Error
}
