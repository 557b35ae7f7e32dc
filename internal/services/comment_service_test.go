package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(t *testing.T) (*CommentService, *models.Post) {
	db := newTestDB(t)
	posts := repository.NewPostRepository(db)
	post := makePost(1)
	require.NoError(t, posts.Create(context.Background(), post))
	svc := NewCommentService(posts, repository.NewCommentRepository(db), repository.NewCommentRepliesRepository(db))
	return svc, post
}

func TestCommentReplyThread(t *testing.T) {
	ctx := context.Background()
	svc, post := newCommentService(t)

	c1, err := svc.Create(ctx, post.ID, "ann", "first")
	require.NoError(t, err)
	c2, err := svc.Create(ctx, post.ID, "bob", "second")
	require.NoError(t, err)

	owner, r1, err := svc.Reply(ctx, c1.ID, "bob", "r1")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, owner)

	owner, r2, err := svc.Reply(ctx, r1.ID, "cat", "r2")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, owner)

	listed, err := svc.GetForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	flags := map[string]bool{}
	for _, c := range listed {
		flags[c.ID] = c.HasReplies
	}
	assert.True(t, flags[c1.ID])
	assert.False(t, flags[c2.ID])

	agg, err := svc.GetReplies(ctx, c1.ID)
	require.NoError(t, err)
	require.Len(t, agg.Replies, 1)
	require.Len(t, agg.Replies[0].Replies, 1)
	assert.Equal(t, r2.ID, agg.Replies[0].Replies[0].ID)

	liked, err := svc.ToggleReplyLike(ctx, r2.ID, "ann")
	require.NoError(t, err)
	assert.True(t, liked)

	_, _, err = svc.Reply(ctx, "missing", "bob", "lost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCommentCreateRequiresPost(t *testing.T) {
	svc, _ := newCommentService(t)
	_, err := svc.Create(context.Background(), "missing", "ann", "hi")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Create(context.Background(), "missing", "ann", "  ")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestCommentToggles(t *testing.T) {
	ctx := context.Background()
	svc, post := newCommentService(t)
	c, err := svc.Create(ctx, post.ID, "ann", "first")
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, c.ID, "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	disliked, err := svc.ToggleDislike(ctx, c.ID, "u1")
	require.NoError(t, err)
	assert.True(t, disliked)

	listed, err := svc.GetForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Likes.Has("u1"))
	assert.True(t, listed[0].Dislikes.Has("u1"))
}

func TestCommentDeletePermissions(t *testing.T) {
	ctx := context.Background()
	svc, post := newCommentService(t)
	c, err := svc.Create(ctx, post.ID, "ann", "first")
	require.NoError(t, err)
	_, _, err = svc.Reply(ctx, c.ID, "bob", "r1")
	require.NoError(t, err)

	bob := &models.Profile{ID: "id-2", Username: "bob", Roles: models.RoleList{models.RoleUser}}
	assert.ErrorIs(t, svc.Delete(ctx, c.ID, bob), ErrForbidden)

	mod := &models.Profile{ID: "id-3", Username: "mod", Roles: models.RoleList{models.RoleModerator}}
	require.NoError(t, svc.Delete(ctx, c.ID, mod))

	_, err = svc.GetReplies(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// stuckReplies fails every aggregate delete
type stuckReplies struct {
	repository.CommentRepliesRepository
}

func (stuckReplies) DeleteByID(context.Context, string) (bool, error) {
	return false, errors.New("replies store unavailable")
}

func TestCommentDeleteKeepsCommentWhenRepliesFail(t *testing.T) {
	ctx := context.Background()
	svc, post := newCommentService(t)
	c, err := svc.Create(ctx, post.ID, "ann", "first")
	require.NoError(t, err)
	_, _, err = svc.Reply(ctx, c.ID, "bob", "r1")
	require.NoError(t, err)

	working := svc.replies
	svc.replies = stuckReplies{CommentRepliesRepository: working}
	ann := &models.Profile{ID: "id-1", Username: "ann", Roles: models.RoleList{models.RoleUser}}
	require.Error(t, svc.Delete(ctx, c.ID, ann))

	_, err = svc.comments.GetByID(ctx, c.ID)
	require.NoError(t, err, "the comment stays so the delete can be retried")
	_, err = working.Get(ctx, c.ID)
	require.NoError(t, err)

	svc.replies = working
	require.NoError(t, svc.Delete(ctx, c.ID, ann))
	_, err = svc.comments.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = working.Get(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
