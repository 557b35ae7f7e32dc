package cache

import (
	"context"
	"time"

	"github.com/inkvault/backend/internal/models"
)

const postKeyPrefix = "post:id:"

// PostKey is the cache key for a post id
func PostKey(id string) string {
	return postKeyPrefix + id
}

// PostCache caches posts by id
type PostCache struct {
	entries *EntityCache[models.Post]
}

func NewPostCache(backend Backend, ttl time.Duration) *PostCache {
	return &PostCache{entries: NewEntityCache[models.Post]("post", backend, ttl)}
}

func (c *PostCache) Get(ctx context.Context, id string) (*models.Post, bool) {
	return c.entries.Get(ctx, PostKey(id))
}

func (c *PostCache) Set(ctx context.Context, post *models.Post) {
	if post == nil {
		return
	}
	_ = c.entries.Set(ctx, PostKey(post.ID), *post)
}

// SetMany populates the cache for a page of posts in one call
func (c *PostCache) SetMany(ctx context.Context, posts []models.Post) {
	if len(posts) == 0 {
		return
	}
	entries := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		entries[PostKey(p.ID)] = p
	}
	_ = c.entries.SetMany(ctx, entries)
}

func (c *PostCache) Invalidate(ctx context.Context, id string) {
	_ = c.entries.Invalidate(ctx, PostKey(id))
}
