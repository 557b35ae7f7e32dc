package cache

import (
	"context"
	"time"

	"github.com/inkvault/backend/internal/models"
)

const (
	profileIDPrefix       = "profile:id:"
	profileUsernamePrefix = "profile:username:"
)

func ProfileIDKey(id string) string {
	return profileIDPrefix + id
}

func ProfileUsernameKey(username string) string {
	return profileUsernamePrefix + username
}

// ProfileCache stores each profile under both its id and its username so a
// lookup by either key hits after one population.
type ProfileCache struct {
	entries *EntityCache[models.Profile]
}

func NewProfileCache(backend Backend, ttl time.Duration) *ProfileCache {
	return &ProfileCache{entries: NewEntityCache[models.Profile]("profile", backend, ttl)}
}

func (c *ProfileCache) GetByID(ctx context.Context, id string) (*models.Profile, bool) {
	return c.entries.Get(ctx, ProfileIDKey(id))
}

func (c *ProfileCache) GetByUsername(ctx context.Context, username string) (*models.Profile, bool) {
	return c.entries.Get(ctx, ProfileUsernameKey(username))
}

// SetBoth writes both keys together. If the write fails neither key is left
// behind, so a reader never sees one key fresh and the other stale.
func (c *ProfileCache) SetBoth(ctx context.Context, p *models.Profile) {
	if p == nil {
		return
	}
	c.SetMany(ctx, []models.Profile{*p})
}

// SetMany writes both keys for every profile in one backend call
func (c *ProfileCache) SetMany(ctx context.Context, profiles []models.Profile) {
	if len(profiles) == 0 {
		return
	}
	entries := make(map[string]models.Profile, len(profiles)*2)
	keys := make([]string, 0, len(profiles)*2)
	for _, p := range profiles {
		entries[ProfileIDKey(p.ID)] = p
		entries[ProfileUsernameKey(p.Username)] = p
		keys = append(keys, ProfileIDKey(p.ID), ProfileUsernameKey(p.Username))
	}
	if err := c.entries.SetMany(ctx, entries); err != nil {
		_ = c.entries.Invalidate(ctx, keys...)
	}
}

// Invalidate drops the id key and every given username key. Pass the old
// username as well after a rename.
func (c *ProfileCache) Invalidate(ctx context.Context, id string, usernames ...string) {
	keys := []string{ProfileIDKey(id)}
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, ProfileUsernameKey(u))
		}
	}
	_ = c.entries.Invalidate(ctx, keys...)
}
