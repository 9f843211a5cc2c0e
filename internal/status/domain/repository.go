package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, status Status) error
	Get(ctx context.Context, id snowflake.ID) (*Status, error)
	ListByAuthor(ctx context.Context, authorID string, page pagination.Pagination) ([]Status, error)
	// Delete removes the status with its likes and replies.
	Delete(ctx context.Context, id snowflake.ID) error

	// AddLike reports false when the like already exists.
	AddLike(ctx context.Context, like Like) (bool, error)
	// RemoveLike reports false when there was no like to remove.
	RemoveLike(ctx context.Context, statusID snowflake.ID, userID string) (bool, error)
	LikedBy(ctx context.Context, userID string, ids []snowflake.ID) (map[snowflake.ID]bool, error)
	AdjustCounts(ctx context.Context, id snowflake.ID, likes, replies int64) error

	CreateReply(ctx context.Context, reply Reply) error
	GetReply(ctx context.Context, id snowflake.ID) (*Reply, error)
	// ListReplies returns up to page.Limit()+1 replies, oldest first.
	ListReplies(ctx context.Context, statusID snowflake.ID, page pagination.Pagination) ([]Reply, error)
	DeleteReply(ctx context.Context, id snowflake.ID) error
}
