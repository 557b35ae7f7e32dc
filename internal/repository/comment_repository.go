package repository

import (
	"context"

	"github.com/inkvault/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository handles top level comments. Their reply trees live in
// CommentRepliesRepository.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	GetForPost(ctx context.Context, postID string) ([]models.Comment, error)
	Save(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) (bool, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment == nil {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// GetForPost returns every comment on a post, newest first
func (r *commentRepository) GetForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Save(ctx context.Context, comment *models.Comment) error {
	if comment == nil || comment.ID == "" {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(comment).Select("*").Updates(comment)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	return res.RowsAffected > 0, res.Error
}
