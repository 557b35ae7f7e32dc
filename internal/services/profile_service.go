package services

import (
	"context"
	"errors"

	"github.com/inkvault/backend/internal/cache"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/telemetry"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ProfileService reads profiles through a cache keyed by both id and username
type ProfileService struct {
	profiles repository.ProfileRepository
	cache    *cache.ProfileCache
}

func NewProfileService(profiles repository.ProfileRepository, profileCache *cache.ProfileCache) *ProfileService {
	return &ProfileService{profiles: profiles, cache: profileCache}
}

func (s *ProfileService) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := s.cache.GetByID(ctx, id); ok {
		return p, nil
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetBoth(ctx, p)
	return p, nil
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	if p, ok := s.cache.GetByUsername(ctx, username); ok {
		return p, nil
	}
	p, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	s.cache.SetBoth(ctx, p)
	return p, nil
}

// GetMany resolves every key from the cache it can and fetches the rest with
// one store query. The result holds each profile once.
func (s *ProfileService) GetMany(ctx context.Context, usernames, ids []string) ([]models.Profile, error) {
	found := make([]models.Profile, 0, len(usernames)+len(ids))
	var missNames, missIDs []string

	for _, u := range lo.Uniq(usernames) {
		if p, ok := s.cache.GetByUsername(ctx, u); ok {
			found = append(found, *p)
			continue
		}
		missNames = append(missNames, u)
	}
	for _, id := range lo.Uniq(ids) {
		if p, ok := s.cache.GetByID(ctx, id); ok {
			found = append(found, *p)
			continue
		}
		missIDs = append(missIDs, id)
	}

	if len(missNames) > 0 || len(missIDs) > 0 {
		fetched, err := s.profiles.GetMany(ctx, missNames, missIDs)
		if err != nil {
			return nil, err
		}
		s.cache.SetMany(ctx, fetched)
		found = append(found, fetched...)
	}

	return lo.UniqBy(found, func(p models.Profile) string { return p.ID }), nil
}

func (s *ProfileService) GetAll(ctx context.Context, page repository.Page) ([]models.Profile, error) {
	return s.profiles.GetAll(ctx, page)
}

// Save writes the whole profile and refreshes both cache keys. A username
// change also drops the key under the previous name.
func (s *ProfileService) Save(ctx context.Context, p *models.Profile) error {
	before, err := s.profiles.GetByID(ctx, p.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return err
	}
	if before != nil && before.Username != p.Username {
		s.cache.Invalidate(ctx, p.ID, before.Username)
	}
	s.cache.SetBoth(ctx, p)
	return nil
}

// Patch applies column updates. The cache entries under the old and the new
// username are both dropped before the fresh profile is written back.
func (s *ProfileService) Patch(ctx context.Context, id string, columns map[string]interface{}) (*models.Profile, error) {
	before, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return before, nil
	}
	if err := s.profiles.UpdateFields(ctx, id, columns); err != nil {
		return nil, err
	}
	after, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id, before.Username, after.Username)
	s.cache.SetBoth(ctx, after)

	if before.Username != after.Username {
		logger.For(ctx).Info("Profile renamed",
			logger.WithUserID(id),
			zap.String("from", before.Username),
			zap.String("to", after.Username))
	}
	return after, nil
}

// ToggleFollow flips whether followerID follows targetUsername and reports
// whether it now does
func (s *ProfileService) ToggleFollow(ctx context.Context, followerID, targetUsername string) (followed bool, err error) {
	ctx, span := telemetry.TraceFollow(ctx, followerID, targetUsername)
	defer func() { telemetry.End(span, err) }()

	target, err := s.profiles.GetByUsername(ctx, targetUsername)
	if err != nil {
		return false, err
	}
	if target.ID == followerID {
		return false, ErrSelfFollow
	}
	follower, err := s.profiles.GetByID(ctx, followerID)
	if err != nil {
		return false, err
	}

	followed = !follower.Following.Has(target.ID)
	if followed {
		follower.Following.Add(target.ID)
		target.Followers.Add(follower.ID)
	} else {
		follower.Following.Remove(target.ID)
		target.Followers.Remove(follower.ID)
	}

	if err := s.profiles.SaveFollow(ctx, follower, target); err != nil {
		return false, err
	}
	s.cache.SetMany(ctx, []models.Profile{*follower, *target})
	return followed, nil
}

// View counts one public profile view and returns the profile as counted
func (s *ProfileService) View(ctx context.Context, username string) (*models.Profile, error) {
	p, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.IncrementViews(ctx, p.ID); err != nil {
		logger.For(ctx).Warn("failed to count profile view", logger.WithUserID(p.ID), logger.WithError(err))
		return p, nil
	}
	p.Views++
	s.cache.SetBoth(ctx, p)
	return p, nil
}
