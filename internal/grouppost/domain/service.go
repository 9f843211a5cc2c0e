package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

// Service gates every post operation on membership of the post's group.
type Service interface {
	CreatePost(ctx context.Context, actorID string, groupID snowflake.ID, content string) (*GroupPost, error)
	ListPosts(ctx context.Context, actorID string, groupID snowflake.ID, page pagination.Pagination) (*ListPostsResponse, error)
	DeletePost(ctx context.Context, actorID string, postID snowflake.ID) error

	LikePost(ctx context.Context, actorID string, postID snowflake.ID) (*LikeResult, error)
	UnlikePost(ctx context.Context, actorID string, postID snowflake.ID) error

	Reply(ctx context.Context, actorID string, postID snowflake.ID, content string) (*Reply, error)
	ListReplies(ctx context.Context, actorID string, postID snowflake.ID, page pagination.Pagination) (*ListRepliesResponse, error)
	// DeleteReply is allowed for the reply author and group admins.
	DeleteReply(ctx context.Context, actorID string, replyID snowflake.ID) error
}

type ListPostsResponse struct {
	Posts    []GroupPost         `json:"posts"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type ListRepliesResponse struct {
	Replies  []Reply             `json:"replies"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidPost   = apperror.Validation("invalid_post")
	ErrInvalidReply  = apperror.Validation("invalid_reply")
	ErrPostNotFound  = apperror.NotFound("post_not_found")
	ErrReplyNotFound = apperror.NotFound("reply_not_found")
	ErrLikeNotFound  = apperror.NotFound("like_not_found")
)
