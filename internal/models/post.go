package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// PostType classifies a post. Only generic posts exist today.
type PostType string

const (
	PostTypeGeneric PostType = "generic"
)

// ShortIDLength is the length of the id prefix used in shareable post links
const ShortIDLength = 8

// Post is a published entry. The row is authoritative; caches hold copies.
type Post struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Author    string     `gorm:"index;not null" json:"author"`
	AuthorID  string     `gorm:"index;not null;type:varchar(36)" json:"author_id"`
	Title     string     `gorm:"not null" json:"title"`
	Body      *string    `gorm:"type:text" json:"body,omitempty"`
	Tags      StringList `json:"tags"`
	PostType  PostType   `gorm:"type:varchar(32);default:generic" json:"post_type"`
	NSFW      bool       `json:"nsfw"`
	Likes     StringSet  `json:"likes"`
	Dislikes  StringSet  `json:"dislikes"`
	LikeCount int        `gorm:"index" json:"like_count"`
	Media     MediaList  `json:"media"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PostType == "" {
		p.PostType = PostTypeGeneric
	}
	return nil
}

// BeforeSave keeps the denormalised like count in step with the like set
func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.LikeCount = p.Likes.Len()
	return nil
}

// ShortID returns the first eight characters of the id
func (p *Post) ShortID() string {
	if len(p.ID) < ShortIDLength {
		return p.ID
	}
	return p.ID[:ShortIDLength]
}

// PostTag indexes posts by tag so tag filters stay in SQL
type PostTag struct {
	PostID string `gorm:"primaryKey;type:varchar(36)"`
	Tag    string `gorm:"primaryKey;index"`
}

func (PostTag) TableName() string {
	return "post_tags"
}

// Media describes one uploaded file attached to a post
type Media struct {
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	IsNSFW      *bool     `json:"is_nsfw,omitempty"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
}

// MediaList is stored as a JSON array on the post row
type MediaList []Media

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	return jsonValue([]Media(m))
}

func (m *MediaList) Scan(value interface{}) error {
	return jsonScan(value, (*[]Media)(m))
}

func (MediaList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}

// PostResponse is the wire shape of a post
type PostResponse struct {
	ID        string    `json:"_id"`
	ShortID   string    `json:"short_id"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	Tags      []string  `json:"tags"`
	PostType  PostType  `json:"post_type"`
	NSFW      bool      `json:"nsfw"`
	Likes     StringSet `json:"likes"`
	Dislikes  StringSet `json:"dislikes"`
	Media     MediaList `json:"media"`
	CreatedAt int64     `json:"created_at"`
}

// ToResponse projects a post onto its wire shape (created_at in unix millis)
func (p *Post) ToResponse() PostResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	media := p.Media
	if media == nil {
		media = MediaList{}
	}
	return PostResponse{
		ID:        p.ID,
		ShortID:   p.ShortID(),
		Author:    p.Author,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Body:      p.Body,
		Tags:      tags,
		PostType:  p.PostType,
		NSFW:      p.NSFW,
		Likes:     p.Likes,
		Dislikes:  p.Dislikes,
		Media:     media,
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}

// PostPatch is the author-editable subset of a post
type PostPatch struct {
	Title *string   `json:"title"`
	Body  *string   `json:"body"`
	Tags  *[]string `json:"tags"`
	NSFW  *bool     `json:"nsfw"`
}

// IsEmpty reports whether the patch changes nothing
func (pp PostPatch) IsEmpty() bool {
	return pp.Title == nil && pp.Body == nil && pp.Tags == nil && pp.NSFW == nil
}

// Apply writes the set fields onto p
func (pp PostPatch) Apply(p *Post) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Body != nil {
		p.Body = pp.Body
	}
	if pp.Tags != nil {
		p.Tags = StringList(*pp.Tags)
	}
	if pp.NSFW != nil {
		p.NSFW = *pp.NSFW
	}
}

// AdminPostPatch lets moderators rewrite any field of a post
type AdminPostPatch struct {
	PostPatch
	Author    *string    `json:"author"`
	AuthorID  *string    `json:"author_id"`
	PostType  *PostType  `json:"post_type"`
	Likes     *[]string  `json:"likes"`
	Dislikes  *[]string  `json:"dislikes"`
	CreatedAt *time.Time `json:"created_at"`
}

// IsEmpty reports whether the patch changes nothing
func (ap AdminPostPatch) IsEmpty() bool {
	return ap.PostPatch.IsEmpty() && ap.Author == nil && ap.AuthorID == nil &&
		ap.PostType == nil && ap.Likes == nil && ap.Dislikes == nil && ap.CreatedAt == nil
}

// Apply writes the set fields onto p
func (ap AdminPostPatch) Apply(p *Post) {
	ap.PostPatch.Apply(p)
	if ap.Author != nil {
		p.Author = *ap.Author
	}
	if ap.AuthorID != nil {
		p.AuthorID = *ap.AuthorID
	}
	if ap.PostType != nil {
		p.PostType = *ap.PostType
	}
	if ap.Likes != nil {
		p.Likes = NewStringSet(*ap.Likes...)
	}
	if ap.Dislikes != nil {
		p.Dislikes = NewStringSet(*ap.Dislikes...)
	}
	if ap.CreatedAt != nil {
		p.CreatedAt = *ap.CreatedAt
	}
}
