package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/metrics"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/replytree"
	"github.com/inkvault/backend/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// maxSaveAttempts bounds the reload-and-reapply loop of a conditional replace
	maxSaveAttempts = 5
	scanBatchSize   = 200
)

var (
	errStaleVersion = errors.New("stale aggregate version")
	errStopScan     = errors.New("stop scan")
)

// CommentRepliesRepository is the only writer of CommentReplies aggregates.
// Every mutation loads the aggregate, applies the change to an in-memory tree
// and writes the whole document back with a compare-and-swap on Version.
type CommentRepliesRepository interface {
	Create(ctx context.Context, commentID string) error
	Get(ctx context.Context, commentID string) (*models.CommentReplies, error)
	HasReplies(ctx context.Context, commentIDs []string) (map[string]bool, error)

	// AddReplyToParent inserts under parentID inside a known aggregate. parentID
	// equal to commentID appends at the root.
	AddReplyToParent(ctx context.Context, commentID, parentID string, reply models.Reply) error
	// AddReplyByParentID resolves the owning aggregate through the reply index and
	// falls back to a scan. Returns the owning comment id.
	AddReplyByParentID(ctx context.Context, parentID string, reply models.Reply) (string, error)
	// AddReplyByParentIDScan walks every aggregate until one accepts the reply.
	// Cost grows with the total number of replies stored.
	AddReplyByParentIDScan(ctx context.Context, parentID string, reply models.Reply) (string, error)

	ToggleReplyLike(ctx context.Context, replyID, userID string) (bool, error)
	ToggleReplyDislike(ctx context.Context, replyID, userID string) (bool, error)

	// OwnerOf returns the comment id whose tree holds replyID
	OwnerOf(ctx context.Context, replyID string) (string, error)
	DeleteByID(ctx context.Context, commentID string) (bool, error)
}

type commentRepliesRepository struct {
	db *gorm.DB
}

// NewCommentRepliesRepository creates a new comment replies repository
func NewCommentRepliesRepository(db *gorm.DB) CommentRepliesRepository {
	return &commentRepliesRepository{db: db}
}

// mutation edits one loaded aggregate. It runs again from a fresh load when the
// conditional replace loses a race, so it must not leak state between runs
// beyond the values it reports.
type mutation func(doc *models.CommentReplies, tree *replytree.Tree) error

func (r *commentRepliesRepository) Create(ctx context.Context, commentID string) error {
	if commentID == "" {
		return ErrInvalidInput
	}
	doc := &models.CommentReplies{
		ID:      commentID,
		SubIDs:  models.StringSet{},
		Replies: models.ReplyList{},
	}
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

func (r *commentRepliesRepository) Get(ctx context.Context, commentID string) (*models.CommentReplies, error) {
	var doc models.CommentReplies
	if err := r.db.WithContext(ctx).Where("id = ?", commentID).First(&doc).Error; err != nil {
		return nil, translate(err)
	}
	if doc.SubIDs == nil {
		doc.SubIDs = models.StringSet{}
	}
	if doc.Replies == nil {
		doc.Replies = models.ReplyList{}
	}
	return &doc, nil
}

func (r *commentRepliesRepository) HasReplies(ctx context.Context, commentIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ID         string
		HasReplies bool
	}
	err := r.db.WithContext(ctx).Model(&models.CommentReplies{}).
		Select("id, has_replies").
		Where("id IN ?", commentIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.HasReplies
	}
	return out, nil
}

// insertion builds the mutation shared by every add path
func insertion(parentID string, reply models.Reply) mutation {
	return func(doc *models.CommentReplies, tree *replytree.Tree) error {
		if doc.SubIDs.Has(reply.ID) || tree.Contains(reply.ID) {
			return ErrDuplicateKey
		}
		var ok bool
		if parentID == doc.ID {
			ok = tree.AppendRoot(reply)
		} else {
			ok = tree.InsertUnder(parentID, reply)
		}
		if !ok {
			return ErrNotFound
		}
		stack := []models.Reply{reply}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			doc.SubIDs.Add(n.ID)
			stack = append(stack, n.Replies...)
		}
		doc.HasReplies = true
		return nil
	}
}

func (r *commentRepliesRepository) AddReplyToParent(ctx context.Context, commentID, parentID string, reply models.Reply) error {
	if commentID == "" || parentID == "" || reply.ID == "" {
		return ErrInvalidInput
	}
	return r.update(ctx, commentID, insertion(parentID, reply), replyIDs(reply))
}

func (r *commentRepliesRepository) AddReplyByParentID(ctx context.Context, parentID string, reply models.Reply) (string, error) {
	if parentID == "" || reply.ID == "" {
		return "", ErrInvalidInput
	}
	owner, err := r.lookupOwner(ctx, parentID)
	if err == nil {
		if err := r.AddReplyToParent(ctx, owner, parentID, reply); err != nil {
			return "", err
		}
		return owner, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return r.AddReplyByParentIDScan(ctx, parentID, reply)
}

func (r *commentRepliesRepository) AddReplyByParentIDScan(ctx context.Context, parentID string, reply models.Reply) (string, error) {
	if parentID == "" || reply.ID == "" {
		return "", ErrInvalidInput
	}
	owner, err := r.scanForOwner(ctx, parentID)
	if err != nil {
		return "", err
	}
	if err := r.AddReplyToParent(ctx, owner, parentID, reply); err != nil {
		return "", err
	}
	return owner, nil
}

func (r *commentRepliesRepository) ToggleReplyLike(ctx context.Context, replyID, userID string) (bool, error) {
	return r.toggle(ctx, replyID, func(tree *replytree.Tree) (bool, bool) {
		return tree.ToggleLike(replyID, userID)
	})
}

func (r *commentRepliesRepository) ToggleReplyDislike(ctx context.Context, replyID, userID string) (bool, error) {
	return r.toggle(ctx, replyID, func(tree *replytree.Tree) (bool, bool) {
		return tree.ToggleDislike(replyID, userID)
	})
}

func (r *commentRepliesRepository) toggle(ctx context.Context, replyID string, apply func(*replytree.Tree) (bool, bool)) (bool, error) {
	if replyID == "" {
		return false, ErrInvalidInput
	}
	owner, err := r.OwnerOf(ctx, replyID)
	if err != nil {
		return false, err
	}
	var state bool
	err = r.update(ctx, owner, func(_ *models.CommentReplies, tree *replytree.Tree) error {
		s, found := apply(tree)
		if !found {
			return ErrNotFound
		}
		state = s
		return nil
	}, nil)
	return state, err
}

func (r *commentRepliesRepository) OwnerOf(ctx context.Context, replyID string) (string, error) {
	var idx models.ReplyIndex
	err := r.db.WithContext(ctx).Where("reply_id = ?", replyID).First(&idx).Error
	if err == nil {
		return idx.CommentID, nil
	}
	if err = translate(err); !errors.Is(err, ErrNotFound) {
		return "", err
	}
	owner, err := r.scanForOwner(ctx, replyID)
	if err != nil {
		return "", err
	}
	if owner == replyID {
		// a comment id is not a reply
		return "", ErrNotFound
	}
	r.backfillIndex(ctx, replyID, owner)
	return owner, nil
}

// lookupOwner resolves parentID as either an aggregate id or an indexed reply
func (r *commentRepliesRepository) lookupOwner(ctx context.Context, parentID string) (string, error) {
	var idx models.ReplyIndex
	err := r.db.WithContext(ctx).Where("reply_id = ?", parentID).First(&idx).Error
	if err == nil {
		return idx.CommentID, nil
	}
	if err = translate(err); !errors.Is(err, ErrNotFound) {
		return "", err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CommentReplies{}).Where("id = ?", parentID).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return parentID, nil
	}
	return "", ErrNotFound
}

// scanForOwner walks every aggregate in primary key order and returns the first whose
// id or tree matches target. sub_ids is not trusted here; only the tree is.
func (r *commentRepliesRepository) scanForOwner(ctx context.Context, target string) (string, error) {
	metrics.Get().ReplyScans.Inc()

	var owner string
	var batch []models.CommentReplies
	res := r.db.WithContext(ctx).FindInBatches(&batch, scanBatchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			doc := &batch[i]
			if doc.ID == target || replytree.New(doc.Replies).Contains(target) {
				owner = doc.ID
				return errStopScan
			}
		}
		return nil
	})
	if res.Error != nil && !errors.Is(res.Error, errStopScan) {
		return "", res.Error
	}
	if owner == "" {
		return "", ErrNotFound
	}
	logger.For(ctx).Debug("Reply owner resolved by scan",
		logger.WithReplyID(target),
		logger.WithCommentID(owner),
	)
	return owner, nil
}

func (r *commentRepliesRepository) backfillIndex(ctx context.Context, replyID, commentID string) {
	row := models.ReplyIndex{ReplyID: replyID, CommentID: commentID}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		logger.For(ctx).Warn("Failed to backfill reply index", logger.WithReplyID(replyID), zap.Error(err))
	}
}

// update runs the load, mutate, conditional replace cycle
func (r *commentRepliesRepository) update(ctx context.Context, commentID string, mutate mutation, newReplyIDs []string) error {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		doc, err := r.Get(ctx, commentID)
		if err != nil {
			return err
		}
		tree := replytree.New(doc.Replies)
		if err := mutate(doc, tree); err != nil {
			return err
		}
		doc.Replies = tree.Flatten()

		err = r.replace(ctx, doc, newReplyIDs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errStaleVersion) {
			return err
		}
		metrics.Get().VersionConflicts.Inc()
		telemetry.RecordVersionConflict(ctx, commentID, attempt)
		logger.For(ctx).Debug("Comment replies version conflict, retrying",
			logger.WithCommentID(commentID),
			zap.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("comment replies %s: %w", commentID, ErrVersionConflict)
}

// replace writes doc if its version is still current and records index rows for
// newly inserted replies in the same transaction
func (r *commentRepliesRepository) replace(ctx context.Context, doc *models.CommentReplies, newReplyIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CommentReplies{}).
			Where("id = ? AND version = ?", doc.ID, doc.Version).
			Updates(map[string]interface{}{
				"has_replies": doc.HasReplies,
				"sub_ids":     doc.SubIDs,
				"replies":     doc.Replies,
				"version":     doc.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleVersion
		}
		if len(newReplyIDs) > 0 {
			rows := make([]models.ReplyIndex, len(newReplyIDs))
			for i, id := range newReplyIDs {
				rows[i] = models.ReplyIndex{ReplyID: id, CommentID: doc.ID}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return translate(err)
			}
		}
		doc.Version++
		return nil
	})
}

func (r *commentRepliesRepository) DeleteByID(ctx context.Context, commentID string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", commentID).Delete(&models.CommentReplies{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return tx.Where("comment_id = ?", commentID).Delete(&models.ReplyIndex{}).Error
	})
	return deleted, err
}

// replyIDs lists reply and every id nested below it
func replyIDs(reply models.Reply) []string {
	var ids []string
	stack := []models.Reply{reply}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, n.ID)
		stack = append(stack, n.Replies...)
	}
	return ids
}
