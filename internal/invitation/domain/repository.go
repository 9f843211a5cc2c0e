package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invitation Invitation) error
	Get(ctx context.Context, id snowflake.ID) (*Invitation, error)
	FindPending(ctx context.Context, groupID snowflake.ID, inviteeID string) (*Invitation, error)
	ListPendingByInvitee(ctx context.Context, inviteeID string) ([]Invitation, error)
	// Resolve moves a pending invitation to status. It reports false when the
	// invitation was no longer pending.
	Resolve(ctx context.Context, id snowflake.ID, status Status, at time.Time) (bool, error)
	RevokePending(ctx context.Context, groupID snowflake.ID, inviteeID string, at time.Time) (int64, error)
	DeleteByGroup(ctx context.Context, groupID snowflake.ID) error
}
