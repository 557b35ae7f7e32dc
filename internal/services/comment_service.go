package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/reaction"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/telemetry"
)

// CommentService keeps each comment and its reply aggregate in step
type CommentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	replies  repository.CommentRepliesRepository
}

func NewCommentService(posts repository.PostRepository, comments repository.CommentRepository, replies repository.CommentRepliesRepository) *CommentService {
	return &CommentService{posts: posts, comments: comments, replies: replies}
}

// Create adds a comment to a post together with its empty reply aggregate
func (s *CommentService) Create(ctx context.Context, postID, author, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, repository.ErrInvalidInput
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		Author:   author,
		Content:  content,
		Likes:    models.StringSet{},
		Dislikes: models.StringSet{},
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.replies.Create(ctx, comment.ID); err != nil {
		if _, derr := s.comments.Delete(ctx, comment.ID); derr != nil {
			logger.For(ctx).Warn("failed to roll back comment without replies", logger.WithCommentID(comment.ID), logger.WithError(derr))
		}
		return nil, fmt.Errorf("create replies for comment: %w", err)
	}
	return comment, nil
}

// GetForPost lists a post's comments newest first, each flagged with has_replies
func (s *CommentService) GetForPost(ctx context.Context, postID string) ([]models.CommentWithReplies, error) {
	comments, err := s.comments.GetForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	flags, err := s.replies.HasReplies(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.CommentWithReplies, len(comments))
	for i := range comments {
		out[i] = models.CommentWithReplies{Comment: comments[i], HasReplies: flags[comments[i].ID]}
	}
	return out, nil
}

func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID string) (bool, error) {
	return s.toggle(ctx, commentID, "like", func(c *models.Comment) bool {
		return reaction.Like(&c.Likes, &c.Dislikes, userID)
	})
}

func (s *CommentService) ToggleDislike(ctx context.Context, commentID, userID string) (bool, error) {
	return s.toggle(ctx, commentID, "dislike", func(c *models.Comment) bool {
		return reaction.Dislike(&c.Likes, &c.Dislikes, userID)
	})
}

func (s *CommentService) toggle(ctx context.Context, commentID, kind string, flip func(*models.Comment) bool) (on bool, err error) {
	ctx, span := telemetry.TraceReaction(ctx, "comment", commentID, kind)
	defer func() { telemetry.End(span, err) }()

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}
	on = flip(comment)
	if err := s.comments.Save(ctx, comment); err != nil {
		return false, err
	}
	return on, nil
}

// Reply attaches a new reply under parentID, which is either a comment id or
// the id of any reply. It returns the owning comment id and the stored reply.
func (s *CommentService) Reply(ctx context.Context, parentID, author, content string) (_ string, _ models.Reply, err error) {
	if strings.TrimSpace(content) == "" {
		return "", models.Reply{}, repository.ErrInvalidInput
	}
	ctx, span := telemetry.TraceReply(ctx, parentID)
	defer func() { telemetry.End(span, err) }()

	reply := models.NewReply(author, content)
	commentID, err := s.replies.AddReplyByParentID(ctx, parentID, reply)
	if err != nil {
		return "", models.Reply{}, err
	}
	logger.For(ctx).Debug("Reply added", logger.WithCommentID(commentID), logger.WithReplyID(reply.ID))
	return commentID, reply, nil
}

// GetReplies returns the reply aggregate of a comment
func (s *CommentService) GetReplies(ctx context.Context, commentID string) (*models.CommentReplies, error) {
	return s.replies.Get(ctx, commentID)
}

func (s *CommentService) ToggleReplyLike(ctx context.Context, replyID, userID string) (on bool, err error) {
	ctx, span := telemetry.TraceReaction(ctx, "reply", replyID, "like")
	defer func() { telemetry.End(span, err) }()
	return s.replies.ToggleReplyLike(ctx, replyID, userID)
}

func (s *CommentService) ToggleReplyDislike(ctx context.Context, replyID, userID string) (on bool, err error) {
	ctx, span := telemetry.TraceReaction(ctx, "reply", replyID, "dislike")
	defer func() { telemetry.End(span, err) }()
	return s.replies.ToggleReplyDislike(ctx, replyID, userID)
}

// Delete removes a comment and its reply aggregate. Authors may delete their
// own comments and admins any comment.
func (s *CommentService) Delete(ctx context.Context, commentID string, actor *models.Profile) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if actor == nil || (comment.Author != actor.Username && !actor.IsAdmin()) {
		return ErrForbidden
	}
	// the aggregate goes first so a failed delete never orphans it
	if _, err := s.replies.DeleteByID(ctx, commentID); err != nil {
		return fmt.Errorf("delete replies of comment: %w", err)
	}
	if _, err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	return nil
}
