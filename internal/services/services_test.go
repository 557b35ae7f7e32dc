package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inkvault/backend/internal/cache"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// countingPosts counts the store reads PostService makes
type countingPosts struct {
	repository.PostRepository
	getByID atomic.Int32
	latest  atomic.Int32
}

func (c *countingPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	c.getByID.Add(1)
	return c.PostRepository.GetByID(ctx, id)
}

func (c *countingPosts) GetLatest(ctx context.Context, page repository.Page) ([]models.Post, error) {
	c.latest.Add(1)
	return c.PostRepository.GetLatest(ctx, page)
}

// countingProfiles counts the store reads ProfileService makes
type countingProfiles struct {
	repository.ProfileRepository
	reads   atomic.Int32
	getMany [][]string
}

func (c *countingProfiles) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	c.reads.Add(1)
	return c.ProfileRepository.GetByID(ctx, id)
}

func (c *countingProfiles) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	c.reads.Add(1)
	return c.ProfileRepository.GetByUsername(ctx, username)
}

func (c *countingProfiles) GetMany(ctx context.Context, usernames, ids []string) ([]models.Profile, error) {
	c.reads.Add(1)
	c.getMany = append(c.getMany, append(append([]string{}, usernames...), ids...))
	return c.ProfileRepository.GetMany(ctx, usernames, ids)
}

func newPostService(t *testing.T) (*PostService, *countingPosts, *gorm.DB) {
	db := newTestDB(t)
	repo := &countingPosts{PostRepository: repository.NewPostRepository(db)}
	return NewPostService(repo, cache.NewPostCache(cache.NewMemoryStore(), time.Minute)), repo, db
}

func newProfileService(t *testing.T) (*ProfileService, *countingProfiles, repository.ProfileRepository) {
	db := newTestDB(t)
	base := repository.NewProfileRepository(db)
	repo := &countingProfiles{ProfileRepository: base}
	return NewProfileService(repo, cache.NewProfileCache(cache.NewMemoryStore(), time.Minute)), repo, base
}

var postEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makePost(i int) *models.Post {
	return &models.Post{
		Author:    "ann",
		AuthorID:  "author-1",
		Title:     fmt.Sprintf("post %d", i),
		Tags:      models.StringList{"ink"},
		Likes:     models.StringSet{},
		Dislikes:  models.StringSet{},
		CreatedAt: postEpoch.Add(time.Duration(i) * time.Minute),
	}
}

// seedPosts writes n posts straight to the store, bypassing the service
func seedPosts(t *testing.T, db *gorm.DB, n int) []*models.Post {
	t.Helper()
	repo := repository.NewPostRepository(db)
	out := make([]*models.Post, n)
	for i := 0; i < n; i++ {
		out[i] = makePost(i)
		require.NoError(t, repo.Create(context.Background(), out[i]))
	}
	return out
}

func seedProfile(t *testing.T, repo repository.ProfileRepository, id, username string) *models.Profile {
	t.Helper()
	p := models.NewProfile(&models.User{ID: id, Username: username})
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
