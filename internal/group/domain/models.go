// Package domain contains group and membership models.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Group is a named community. Names are unique ignoring case; the slug is a
// readable hint derived from the name and may repeat across groups.
type Group struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(400);not null" json:"name"`
	NameKey     string       `gorm:"type:varchar(400);not null;uniqueIndex:ux_groups_name_key" json:"-"`
	Slug        string       `gorm:"type:varchar(191);not null;index:ix_groups_slug" json:"slug"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	CreatorID   string       `gorm:"type:varchar(191);not null" json:"creator_id"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Group) TableName() string { return "social_groups" }

// NameKey is the comparison form of a group name: trimmed, NFC composed and
// case folded. "Chess" and "CHESS" share a key; "Cafe" and "Café" do not.
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// Membership links a user to a group with a role. At most one per (group, user).
type Membership struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	GroupID  snowflake.ID `gorm:"not null;uniqueIndex:ux_memberships_group_user,priority:1" json:"group_id"`
	UserID   string       `gorm:"type:varchar(191);not null;uniqueIndex:ux_memberships_group_user,priority:2;index" json:"user_id"`
	Role     string       `gorm:"type:varchar(16);not null" json:"role"`
	JoinedAt time.Time    `gorm:"not null" json:"joined_at"`
}

func (Membership) TableName() string { return "memberships" }

// GroupWithRole is a group as seen by one of its members.
type GroupWithRole struct {
	Group
	Role string `json:"role"`
}
