// Package domain contains the group invitation model and its status machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusRevoked  Status = "revoked"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusRevoked
}

// Invitation asks InviteeID to join GroupID. Only pending invitations move, and
// each moves exactly once.
type Invitation struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	GroupID    snowflake.ID `gorm:"not null;index:ix_invitations_group_invitee,priority:1" json:"group_id"`
	InviterID  string       `gorm:"type:varchar(191);not null" json:"inviter_id"`
	InviteeID  string       `gorm:"type:varchar(191);not null;index:ix_invitations_group_invitee,priority:2;index" json:"invitee_id"`
	Status     Status       `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
}

func (Invitation) TableName() string { return "invitations" }
