package repository

import (
	"context"
	"strings"

	"github.com/inkvault/backend/internal/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// PostSort orders search results
type PostSort string

const (
	SortNewest PostSort = "createdAt_desc"
	SortOldest PostSort = "createdAt_asc"
	SortLikes  PostSort = "likes_desc"
)

// ParsePostSort falls back to newest first
func ParsePostSort(s string) PostSort {
	switch PostSort(s) {
	case SortOldest, SortLikes:
		return PostSort(s)
	}
	return SortNewest
}

// PostQuery filters a post search. Zero values mean no filter.
type PostQuery struct {
	Text     string
	Tags     []string
	AuthorID string
	Sort     PostSort
	Page     Page
}

// PostRepository handles all database operations for posts
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// Save replaces every column of an existing post
	Save(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) (bool, error)

	GetLatest(ctx context.Context, page Page) ([]models.Post, error)
	GetAll(ctx context.Context, page Page) ([]models.Post, error)
	GetAllByUser(ctx context.Context, username string, tags []string, page Page) ([]models.Post, error)
	GetFiltered(ctx context.Context, tags []string, page Page) ([]models.Post, error)
	GetPopular(ctx context.Context, tags []string, page Page) ([]models.Post, error)
	GetRandom(ctx context.Context, tags []string, limit int) ([]models.Post, error)
	GetPremium(ctx context.Context, page Page) ([]models.Post, error)
	FindByAuthorAndShortID(ctx context.Context, author, shortID string) (*models.Post, error)
	Search(ctx context.Context, q PostQuery) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return translate(err)
		}
		return syncTags(tx, post)
	})
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *postRepository) Save(ctx context.Context, post *models.Post) error {
	if post == nil || post.ID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(post).Select("*").Updates(post)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return syncTags(tx, post)
	})
}

func (r *postRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error
	})
	return deleted, err
}

func (r *postRepository) GetLatest(ctx context.Context, page Page) ([]models.Post, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at DESC"), page)
}

func (r *postRepository) GetAll(ctx context.Context, page Page) ([]models.Post, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at DESC"), page)
}

func (r *postRepository) GetAllByUser(ctx context.Context, username string, tags []string, page Page) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Where("author = ?", username).Order("created_at DESC")
	return r.find(r.withTags(q, tags), page)
}

func (r *postRepository) GetFiltered(ctx context.Context, tags []string, page Page) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	return r.find(r.withTags(q, tags), page)
}

func (r *postRepository) GetPopular(ctx context.Context, tags []string, page Page) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Order("like_count DESC").Order("created_at DESC")
	return r.find(r.withTags(q, tags), page)
}

func (r *postRepository) GetRandom(ctx context.Context, tags []string, limit int) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Order("RANDOM()")
	return r.find(r.withTags(q, tags), Page{Limit: limit})
}

func (r *postRepository) GetPremium(ctx context.Context, page Page) ([]models.Post, error) {
	premium := r.db.Model(&models.User{}).Select("id").Where("premium = ?", true)
	q := r.db.WithContext(ctx).Where("author_id IN (?)", premium).Order("created_at DESC")
	return r.find(q, page)
}

func (r *postRepository) FindByAuthorAndShortID(ctx context.Context, author, shortID string) (*models.Post, error) {
	if len(shortID) != models.ShortIDLength || strings.ContainsAny(shortID, "%_\\") {
		return nil, ErrNotFound
	}
	var post models.Post
	err := r.db.WithContext(ctx).
		Where("author = ? AND id LIKE ?", author, shortID+"%").
		Order("created_at DESC").
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *postRepository) Search(ctx context.Context, q PostQuery) ([]models.Post, error) {
	db := r.db.WithContext(ctx)
	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := "%" + strings.ToLower(text) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(COALESCE(body, '')) LIKE ?", pattern, pattern)
	}
	if q.AuthorID != "" {
		db = db.Where("author_id = ?", q.AuthorID)
	}
	db = r.withTags(db, q.Tags)

	switch q.Sort {
	case SortOldest:
		db = db.Order("created_at ASC")
	case SortLikes:
		db = db.Order("like_count DESC").Order("created_at DESC")
	default:
		db = db.Order("created_at DESC")
	}
	return r.find(db, q.Page)
}

// withTags keeps posts carrying at least one of tags
func (r *postRepository) withTags(db *gorm.DB, tags []string) *gorm.DB {
	if len(tags) == 0 {
		return db
	}
	sub := r.db.Model(&models.PostTag{}).Select("post_id").Where("tag IN ?", tags)
	return db.Where("id IN (?)", sub)
}

func (r *postRepository) find(db *gorm.DB, page Page) ([]models.Post, error) {
	var posts []models.Post
	if err := page.Normalize().apply(db).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// syncTags rewrites the tag index rows of post
func syncTags(tx *gorm.DB, post *models.Post) error {
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	tags := lo.Uniq(lo.FilterMap([]string(post.Tags), func(tag string, _ int) (string, bool) {
		tag = strings.TrimSpace(tag)
		return tag, tag != ""
	}))
	rows := lo.Map(tags, func(tag string, _ int) models.PostTag {
		return models.PostTag{PostID: post.ID, Tag: tag}
	})
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
