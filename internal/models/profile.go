package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Role grants moderation capabilities
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// ParseRole maps unknown values to RoleUser
func ParseRole(s string) Role {
	switch Role(strings.ToLower(s)) {
	case RoleOwner:
		return RoleOwner
	case RoleModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

// IsAdmin is true for moderators and owners
func (r Role) IsAdmin() bool {
	return r == RoleModerator || r == RoleOwner
}

// CanManageRoles is true for owners only
func (r Role) CanManageRoles() bool {
	return r == RoleOwner
}

// RoleList is stored as a JSON array
type RoleList []Role

func (l RoleList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]Role(l))
}

func (l *RoleList) Scan(value interface{}) error {
	return jsonScan(value, (*[]Role)(l))
}

func (RoleList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}

// Profile is the public-facing side of a user. Its id equals the user id.
// Following and Followers hold profile ids.
type Profile struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Username       string     `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName    string     `json:"display_name"`
	Bio            *string    `gorm:"type:text" json:"bio"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      time.Time  `json:"last_login"`
	Verified       bool       `json:"verified"`
	Views          int64      `json:"views"`
	Roles          RoleList   `gorm:"column:roles" json:"role"`
	Pronouns       StringList `json:"pronouns"`
	Languages      StringList `json:"languages"`
	Links          StringList `json:"links"`
	Status         *string    `json:"status"`
	Following      StringSet  `json:"following"`
	Followers      StringSet  `json:"followers"`
	ProfilePicture *string    `json:"profile_picture"`
	BannerPicture  *string    `json:"banner_picture"`
}

func (Profile) TableName() string {
	return "profiles"
}

// NewProfile builds the default profile for a freshly verified user
func NewProfile(user *User) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.Username,
		CreatedAt:   now,
		LastLogin:   now,
		Roles:       RoleList{RoleUser},
		Pronouns:    StringList{},
		Languages:   StringList{},
		Links:       StringList{},
		Following:   StringSet{},
		Followers:   StringSet{},
	}
}

// IsAdmin reports whether any role grants moderation
func (p *Profile) IsAdmin() bool {
	for _, r := range p.Roles {
		if r.IsAdmin() {
			return true
		}
	}
	return false
}

// HasRole reports whether the profile carries role r
func (p *Profile) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// PublicProfile omits private fields such as last login
type PublicProfile struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Bio            *string   `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	Verified       bool      `json:"verified"`
	Views          int64     `json:"views"`
	Roles          RoleList  `json:"role"`
	Pronouns       []string  `json:"pronouns"`
	Languages      []string  `json:"languages"`
	Links          []string  `json:"links"`
	Status         *string   `json:"status"`
	Following      StringSet `json:"following"`
	Followers      StringSet `json:"followers"`
	ProfilePicture *string   `json:"profile_picture"`
	BannerPicture  *string   `json:"banner_picture"`
}

func (p *Profile) ToPublic() PublicProfile {
	return PublicProfile{
		ID:             p.ID,
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		CreatedAt:      p.CreatedAt,
		Verified:       p.Verified,
		Views:          p.Views,
		Roles:          p.Roles,
		Pronouns:       p.Pronouns,
		Languages:      p.Languages,
		Links:          p.Links,
		Status:         p.Status,
		Following:      p.Following,
		Followers:      p.Followers,
		ProfilePicture: p.ProfilePicture,
		BannerPicture:  p.BannerPicture,
	}
}

// QuickProfile is the card shape returned by quick lookups
type QuickProfile struct {
	ID             string  `json:"_id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	ProfilePicture *string `json:"profile_picture"`
}

// ProfilePatch is the owner-editable subset of a profile
type ProfilePatch struct {
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	Pronouns    *[]string `json:"pronouns"`
	Languages   *[]string `json:"languages"`
	Links       *[]string `json:"links"`
	Status      *string   `json:"status"`
}

// Columns returns the column updates this patch describes
func (pp ProfilePatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if pp.DisplayName != nil {
		cols["display_name"] = *pp.DisplayName
	}
	if pp.Bio != nil {
		cols["bio"] = *pp.Bio
	}
	if pp.Pronouns != nil {
		cols["pronouns"] = StringList(*pp.Pronouns)
	}
	if pp.Languages != nil {
		cols["languages"] = StringList(*pp.Languages)
	}
	if pp.Links != nil {
		cols["links"] = StringList(*pp.Links)
	}
	if pp.Status != nil {
		cols["status"] = *pp.Status
	}
	return cols
}

// AdminProfilePatch extends ProfilePatch with moderator-only fields
type AdminProfilePatch struct {
	ProfilePatch
	Username *string   `json:"username"`
	Verified *bool     `json:"verified"`
	Roles    *[]string `json:"role"`
}

func (ap AdminProfilePatch) Columns() map[string]interface{} {
	cols := ap.ProfilePatch.Columns()
	if ap.Username != nil {
		cols["username"] = *ap.Username
	}
	if ap.Verified != nil {
		cols["verified"] = *ap.Verified
	}
	if ap.Roles != nil {
		roles := make(RoleList, 0, len(*ap.Roles))
		for _, r := range *ap.Roles {
			roles = append(roles, ParseRole(r))
		}
		cols["roles"] = roles
	}
	return cols
}
