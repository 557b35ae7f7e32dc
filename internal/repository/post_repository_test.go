package repository

import (
	"context"
	"testing"
	"time"

	"github.com/inkvault/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newPost(author, authorID, title string, minute int, tags ...string) *models.Post {
	return &models.Post{
		Author:    author,
		AuthorID:  authorID,
		Title:     title,
		Tags:      models.StringList(tags),
		CreatedAt: epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i := range posts {
		out[i] = posts[i].ID
	}
	return out
}

func TestPostCreateAndTags(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)

	a := newPost("ann", "u1", "Ink wash", 1, "ink", "wash", "ink", " ")
	b := newPost("bob", "u2", "Charcoal", 2, "charcoal")
	c := newPost("ann", "u1", "Plain", 3)
	for _, p := range []*models.Post{a, b, c} {
		require.NoError(t, repo.Create(ctx, p))
	}
	assert.Equal(t, models.PostTypeGeneric, a.PostType)

	var tagRows int64
	require.NoError(t, db.Model(&models.PostTag{}).Where("post_id = ?", a.ID).Count(&tagRows).Error)
	assert.EqualValues(t, 2, tagRows)

	got, err := repo.GetFiltered(ctx, []string{"ink", "charcoal"}, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(got))

	got, err = repo.GetAllByUser(ctx, "ann", nil, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, ids(got))

	// retagging replaces the index rows
	a.Tags = models.StringList{"charcoal"}
	require.NoError(t, repo.Save(ctx, a))
	got, err = repo.GetFiltered(ctx, []string{"ink"}, Page{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostSaveMissing(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	p := newPost("ann", "u1", "ghost", 1)
	p.ID = "does-not-exist"
	assert.ErrorIs(t, repo.Save(context.Background(), p), ErrNotFound)
	assert.ErrorIs(t, repo.Save(context.Background(), nil), ErrInvalidInput)
}

func TestPostDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)
	p := newPost("ann", "u1", "bye", 1, "ink")
	require.NoError(t, repo.Create(ctx, p))

	deleted, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var tagRows int64
	require.NoError(t, db.Model(&models.PostTag{}).Count(&tagRows).Error)
	assert.Zero(t, tagRows)

	deleted, err = repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostLatestPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	var created []*models.Post
	for i := 0; i < 5; i++ {
		p := newPost("ann", "u1", "p", i)
		require.NoError(t, repo.Create(ctx, p))
		created = append(created, p)
	}

	got, err := repo.GetLatest(ctx, Page{Limit: 2, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{created[3].ID, created[2].ID}, ids(got))
}

func TestPostPopularOrdersByLikes(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))

	quiet := newPost("ann", "u1", "quiet", 2)
	loud := newPost("ann", "u1", "loud", 1)
	loud.Likes = models.NewStringSet("x", "y")
	require.NoError(t, repo.Create(ctx, quiet))
	require.NoError(t, repo.Create(ctx, loud))
	assert.Equal(t, 2, loud.LikeCount)

	got, err := repo.GetPopular(ctx, nil, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{loud.ID, quiet.ID}, ids(got))

	got, err = repo.Search(ctx, PostQuery{Sort: SortLikes})
	require.NoError(t, err)
	assert.Equal(t, []string{loud.ID, quiet.ID}, ids(got))
}

func TestPostFindByShortID(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	p := newPost("ann", "u1", "permalink", 1)
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByAuthorAndShortID(ctx, "ann", p.ShortID())
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = repo.FindByAuthorAndShortID(ctx, "bob", p.ShortID())
	assert.ErrorIs(t, err, ErrNotFound)

	for _, bad := range []string{"", "abc", "%%%%%%%%", p.ID} {
		_, err = repo.FindByAuthorAndShortID(ctx, "ann", bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}

func TestPostSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	body := "Notes on SUMI ink"
	a := newPost("ann", "u1", "Brushes", 1, "ink")
	a.Body = &body
	b := newPost("bob", "u2", "Ink stones", 2, "stone")
	c := newPost("bob", "u2", "Paper", 3, "ink")
	for _, p := range []*models.Post{a, b, c} {
		require.NoError(t, repo.Create(ctx, p))
	}

	got, err := repo.Search(ctx, PostQuery{Text: "ink"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(got))

	got, err = repo.Search(ctx, PostQuery{Text: "ink", Sort: SortOldest})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(got))

	got, err = repo.Search(ctx, PostQuery{Tags: []string{"ink"}, AuthorID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(got))
}

func TestPostPremium(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)
	users := NewUserRepository(db)

	require.NoError(t, users.CreateUser(ctx, &models.User{ID: "u1", Email: "a@x.io", Username: "ann", Premium: true}))
	require.NoError(t, users.CreateUser(ctx, &models.User{ID: "u2", Email: "b@x.io", Username: "bob"}))
	a := newPost("ann", "u1", "paid", 1)
	b := newPost("bob", "u2", "free", 2)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetPremium(ctx, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(got))
}

func TestPostRandomRespectsTagsAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	for i := 0; i < 6; i++ {
		tag := "odd"
		if i%2 == 0 {
			tag = "even"
		}
		require.NoError(t, repo.Create(ctx, newPost("ann", "u1", "p", i, tag)))
	}

	got, err := repo.GetRandom(ctx, []string{"even"}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, models.StringList{"even"}, p.Tags)
	}
}
