package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkvault/backend/internal/cache"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/metrics"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/reaction"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/telemetry"
	"go.uber.org/zap"
)

// PostService fronts the post repository with the per-id cache and the
// in-process window of the newest posts. The store stays authoritative.
type PostService struct {
	posts  repository.PostRepository
	cache  *cache.PostCache
	window *latestWindow
}

func NewPostService(posts repository.PostRepository, postCache *cache.PostCache) *PostService {
	return &PostService{
		posts:  posts,
		cache:  postCache,
		window: newLatestWindow(),
	}
}

// GetByID reads through the cache
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if post, ok := s.cache.Get(ctx, id); ok {
		return post, nil
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, post)
	return post, nil
}

// Create stores the post and puts it at the head of the latest window
func (s *PostService) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, span := telemetry.TraceCreatePost(ctx, post.AuthorID, len(post.Media))
	defer func() { telemetry.End(span, err) }()

	if err := s.posts.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	s.cache.Set(ctx, post)
	size := s.window.prepend(*post)
	metrics.Get().LatestWindowSize.Set(float64(size))

	logger.For(ctx).Info("Post created",
		logger.WithPostID(post.ID),
		logger.WithUserID(post.AuthorID))
	return nil
}

// Save persists an edited post. The latest window keeps its older copy.
func (s *PostService) Save(ctx context.Context, post *models.Post) error {
	if err := s.posts.Save(ctx, post); err != nil {
		return err
	}
	s.cache.Set(ctx, post)
	return nil
}

// Edit applies an author patch. Only the author may edit.
func (s *PostService) Edit(ctx context.Context, id, userID string, patch models.PostPatch) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrForbidden
	}
	if patch.IsEmpty() {
		return post, nil
	}
	patch.Apply(post)
	if err := s.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// AdminUpdate applies a moderator patch to any post
func (s *PostService) AdminUpdate(ctx context.Context, id string, patch models.AdminPostPatch) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return post, nil
	}
	patch.Apply(post)
	if err := s.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post everywhere it is held
func (s *PostService) Delete(ctx context.Context, id string) error {
	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrNotFound
	}
	s.cache.Invalidate(ctx, id)
	if s.window.remove(id) {
		metrics.Get().LatestWindowSize.Set(float64(s.window.size()))
	}
	return nil
}

// DeleteOwned deletes a post on behalf of its author
func (s *PostService) DeleteOwned(ctx context.Context, id, userID string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}
	return s.Delete(ctx, id)
}

// GetLatest serves newest-first pages. Pages inside the first
// LatestWindowSize posts come from the window; a first page that misses
// refills the whole window with one store query.
func (s *PostService) GetLatest(ctx context.Context, page repository.Page) ([]models.Post, error) {
	page = page.Normalize()
	m := metrics.Get()

	if posts, ok := s.window.slice(page.Skip, page.Limit); ok {
		m.LatestWindowHits.Inc()
		return posts, nil
	}
	m.LatestWindowMisses.Inc()

	if page.Skip == 0 && page.Limit <= LatestWindowSize {
		gen := s.window.generation()
		posts, err := s.posts.GetLatest(ctx, repository.Page{Limit: LatestWindowSize})
		if err != nil {
			return nil, err
		}
		if s.window.replace(posts, gen) {
			m.LatestWindowRebuilds.Inc()
			m.LatestWindowSize.Set(float64(len(posts)))
		} else {
			logger.DebugWithFields("latest window changed during rebuild, keeping it")
		}
		s.cache.SetMany(ctx, posts)
		if len(posts) > page.Limit {
			posts = posts[:page.Limit]
		}
		return posts, nil
	}

	posts, err := s.posts.GetLatest(ctx, page)
	if err != nil {
		return nil, err
	}
	s.cache.SetMany(ctx, posts)
	return posts, nil
}

// ToggleLike flips userID's like on a post and reports whether it is now liked
func (s *PostService) ToggleLike(ctx context.Context, id, userID string) (bool, error) {
	return s.toggle(ctx, id, "like", func(p *models.Post) bool {
		return reaction.Like(&p.Likes, &p.Dislikes, userID)
	})
}

// ToggleDislike mirrors ToggleLike
func (s *PostService) ToggleDislike(ctx context.Context, id, userID string) (bool, error) {
	return s.toggle(ctx, id, "dislike", func(p *models.Post) bool {
		return reaction.Dislike(&p.Likes, &p.Dislikes, userID)
	})
}

// toggle reads the post from the store rather than the cache so the write
// starts from the authoritative sets
func (s *PostService) toggle(ctx context.Context, id, kind string, flip func(*models.Post) bool) (on bool, err error) {
	ctx, span := telemetry.TraceReaction(ctx, "post", id, kind)
	defer func() { telemetry.End(span, err) }()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	on = flip(post)
	if err := s.posts.Save(ctx, post); err != nil {
		return false, err
	}
	s.cache.Set(ctx, post)
	return on, nil
}

func (s *PostService) Search(ctx context.Context, q repository.PostQuery) ([]models.Post, error) {
	return s.cachePage(ctx)(s.posts.Search(ctx, q))
}

func (s *PostService) GetAll(ctx context.Context, page repository.Page) ([]models.Post, error) {
	return s.cachePage(ctx)(s.posts.GetAll(ctx, page))
}

func (s *PostService) GetAllByUser(ctx context.Context, username string, tags []string, page repository.Page) ([]models.Post, error) {
	return s.cachePage(ctx)(s.posts.GetAllByUser(ctx, username, tags, page))
}

func (s *PostService) GetPopular(ctx context.Context, tags []string, page repository.Page) ([]models.Post, error) {
	return s.cachePage(ctx)(s.posts.GetPopular(ctx, tags, page))
}

func (s *PostService) GetRandom(ctx context.Context, tags []string, limit int) ([]models.Post, error) {
	return s.cachePage(ctx)(s.posts.GetRandom(ctx, tags, limit))
}

func (s *PostService) GetPremium(ctx context.Context, page repository.Page) ([]models.Post, error) {
	return s.cachePage(ctx)(s.posts.GetPremium(ctx, page))
}

// cachePage pushes a store page into the per-id cache on the way out
func (s *PostService) cachePage(ctx context.Context) func([]models.Post, error) ([]models.Post, error) {
	return func(posts []models.Post, err error) ([]models.Post, error) {
		if err != nil {
			return nil, err
		}
		s.cache.SetMany(ctx, posts)
		return posts, nil
	}
}

// GetByShortID resolves the /by/:username/:short_id permalink
func (s *PostService) GetByShortID(ctx context.Context, author, shortID string) (*models.Post, error) {
	post, err := s.posts.FindByAuthorAndShortID(ctx, author, shortID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrInvalidInput) {
			logger.For(ctx).Error("short id lookup failed", zap.String("author", author), logger.WithError(err))
		}
		return nil, err
	}
	s.cache.Set(ctx, post)
	return post, nil
}
