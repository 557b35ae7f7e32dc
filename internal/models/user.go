package models

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds credentials. Public data lives on Profile under the same id.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Premium      bool      `gorm:"index" json:"premium"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLogin    time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PendingUser is a registration waiting on email verification
type PendingUser struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (PendingUser) TableName() string {
	return "pending_users"
}

func (p *PendingUser) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Session is a bearer session. Token is the signed JWT handed to the client.
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"session_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	UserID    string    `gorm:"index;not null;type:varchar(36)" json:"user_uuid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsExpired reports whether the session has lapsed at now
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CodeType distinguishes what an emailed code unlocks
type CodeType string

const (
	CodeEmailVerify   CodeType = "email_verify"
	CodePasswordReset CodeType = "password_reset"
)

const (
	emailVerifyCodeLength   = 12
	passwordResetCodeLength = 5
	codeLifetime            = 10 * time.Minute
	codeAlphabet            = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Code is a short-lived emailed secret
type Code struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string    `gorm:"index;not null" json:"email"`
	Username  string    `json:"username"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Type      CodeType  `gorm:"column:code_type;type:varchar(32);not null" json:"code_type"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (Code) TableName() string {
	return "codes"
}

// NewCode generates an alphanumeric code valid for ten minutes. Verification codes
// are twelve characters, password reset codes five.
func NewCode(email, username string, codeType CodeType) (*Code, error) {
	length := emailVerifyCodeLength
	if codeType == CodePasswordReset {
		length = passwordResetCodeLength
	}
	secret, err := randomString(length)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Code{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Code:      secret,
		Type:      codeType,
		ExpiresAt: now.Add(codeLifetime),
		CreatedAt: now,
	}, nil
}

// IsExpired reports whether the code has lapsed at now
func (c *Code) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// Settings are per-user preferences
type Settings struct {
	ID                 string  `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Theme              *string `json:"theme"`
	PageLength         int     `gorm:"default:20" json:"page_length"`
	NSFW               bool    `json:"nsfw"`
	EmailNotifications *bool   `json:"email_notifications"`
}

func (Settings) TableName() string {
	return "user_settings"
}

// DefaultSettings returns the settings a new user starts with
func DefaultSettings(userID string) *Settings {
	theme := "dark"
	email := true
	return &Settings{
		ID:                 userID,
		Theme:              &theme,
		PageLength:         20,
		EmailNotifications: &email,
	}
}

// SettingsPatch is the editable subset of Settings
type SettingsPatch struct {
	Theme              *string `json:"theme"`
	PageLength         *int    `json:"page_length"`
	NSFW               *bool   `json:"nsfw"`
	EmailNotifications *bool   `json:"email_notifications"`
}

func (sp SettingsPatch) Apply(s *Settings) {
	if sp.Theme != nil {
		s.Theme = sp.Theme
	}
	if sp.PageLength != nil {
		s.PageLength = *sp.PageLength
	}
	if sp.NSFW != nil {
		s.NSFW = *sp.NSFW
	}
	if sp.EmailNotifications != nil {
		s.EmailNotifications = sp.EmailNotifications
	}
}
