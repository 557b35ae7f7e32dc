package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportType is what kind of entity a report targets
type ReportType string

const (
	ReportTypePost ReportType = "POST"
	ReportTypeUser ReportType = "USER"
)

// ReportStatus tracks moderation progress
type ReportStatus string

const (
	ReportPending  ReportStatus = "PENDING"
	ReportResolved ReportStatus = "RESOLVED"
)

// ParseReportStatus accepts either case
func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(strings.ToUpper(s)) {
	case ReportPending:
		return ReportPending, nil
	case ReportResolved:
		return ReportResolved, nil
	}
	return "", fmt.Errorf("invalid report status %q", s)
}

// ParseReportType accepts either case
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(strings.ToUpper(s)) {
	case ReportTypePost:
		return ReportTypePost, nil
	case ReportTypeUser:
		return ReportTypeUser, nil
	}
	return "", fmt.Errorf("invalid report type %q", s)
}

type Report struct {
	ID        string       `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	CreatorID string       `gorm:"index;not null;type:varchar(36)" json:"creator_id"`
	TargetID  string       `gorm:"index;not null;type:varchar(36)" json:"target_id"`
	Type      ReportType   `gorm:"column:report_type;type:varchar(16);not null" json:"report_type"`
	Reason    *string      `gorm:"type:text" json:"reason"`
	Status    ReportStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt time.Time    `gorm:"index" json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = ReportPending
	}
	return nil
}

// Announcement is a site-wide notice written by moderators
type Announcement struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&PendingUser{},
		&Session{},
		&Code{},
		&Settings{},
		&Profile{},
		&Post{},
		&PostTag{},
		&Comment{},
		&CommentReplies{},
		&ReplyIndex{},
		&Report{},
		&Announcement{},
	}
}
