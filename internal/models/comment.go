package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Comment is a top level comment on a post. Every comment owns exactly one
// CommentReplies aggregate with the same id.
type Comment struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	PostID    string     `gorm:"index;not null;type:varchar(36)" json:"post_id"`
	Author    string     `gorm:"not null" json:"author"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Likes     StringSet  `json:"likes"`
	Dislikes  StringSet  `json:"dislikes"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommentWithReplies is a comment plus whether its reply tree is non-empty
type CommentWithReplies struct {
	Comment
	HasReplies bool `json:"has_replies"`
}

// Reply is one node of a comment's reply tree. It is owned by its parent
// and holds no back reference.
type Reply struct {
	ID        string     `json:"_id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	Likes     StringSet  `json:"likes"`
	Dislikes  StringSet  `json:"dislikes"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	Replies   []Reply    `json:"replies"`
}

// NewReply builds a reply with a fresh id
func NewReply(author, content string) Reply {
	return Reply{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		Likes:     StringSet{},
		Dislikes:  StringSet{},
		CreatedAt: time.Now().UTC(),
		Replies:   []Reply{},
	}
}

// ReplyList is the root sequence of a reply tree, stored as one JSON document
type ReplyList []Reply

func (l ReplyList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]Reply(l))
}

func (l *ReplyList) Scan(value interface{}) error {
	return jsonScan(value, (*[]Reply)(l))
}

func (ReplyList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}

// CommentReplies is the reply tree aggregate of one comment. SubIDs holds every
// reply id anywhere in the tree. Version increases on every successful save.
type CommentReplies struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	HasReplies bool      `json:"has_replies"`
	SubIDs     StringSet `json:"sub_ids"`
	Replies    ReplyList `json:"replies"`
	Version    int64     `gorm:"not null;default:0" json:"version"`
}

func (CommentReplies) TableName() string {
	return "comment_replies"
}

// ReplyIndex maps a reply id to the comment whose tree contains it
type ReplyIndex struct {
	ReplyID   string `gorm:"primaryKey;type:varchar(36)"`
	CommentID string `gorm:"index;not null;type:varchar(36)"`
}

func (ReplyIndex) TableName() string {
	return "reply_index"
}
