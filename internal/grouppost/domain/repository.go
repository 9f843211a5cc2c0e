package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, post GroupPost) error
	Get(ctx context.Context, id snowflake.ID) (*GroupPost, error)
	// ListByGroup returns up to page.Limit()+1 posts, newest first.
	ListByGroup(ctx context.Context, groupID snowflake.ID, page pagination.Pagination) ([]GroupPost, error)
	// Delete removes the post with its likes and replies.
	Delete(ctx context.Context, id snowflake.ID) error

	AddLike(ctx context.Context, like Like) (bool, error)
	RemoveLike(ctx context.Context, postID snowflake.ID, userID string) (bool, error)
	LikedBy(ctx context.Context, userID string, ids []snowflake.ID) (map[snowflake.ID]bool, error)
	AdjustCounts(ctx context.Context, id snowflake.ID, likes, replies int64) error

	CreateReply(ctx context.Context, reply Reply) error
	GetReply(ctx context.Context, id snowflake.ID) (*Reply, error)
	// ListReplies returns up to page.Limit()+1 replies, oldest first.
	ListReplies(ctx context.Context, postID snowflake.ID, page pagination.Pagination) ([]Reply, error)
	DeleteReply(ctx context.Context, id snowflake.ID) error
}
