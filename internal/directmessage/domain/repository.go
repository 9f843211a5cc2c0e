package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, message DirectMessage) error
	Get(ctx context.Context, id snowflake.ID) (*DirectMessage, error)
	// ListForUser returns messages the user sent or received, newest first.
	ListForUser(ctx context.Context, userID string, page pagination.Pagination) ([]DirectMessage, error)
	ListBetween(ctx context.Context, userID, otherID string, page pagination.Pagination) ([]DirectMessage, error)
	// MarkRead sets read_at when it is still unset and reports whether it did.
	MarkRead(ctx context.Context, id snowflake.ID, at time.Time) (bool, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}
