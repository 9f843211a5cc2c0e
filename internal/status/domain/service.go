package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

type Service interface {
	CreateStatus(ctx context.Context, actorID string, content string) (*Status, error)
	// ListStatuses returns userID's statuses as seen by viewerID.
	ListStatuses(ctx context.Context, viewerID string, userID string, page pagination.Pagination) (*ListStatusesResponse, error)
	DeleteStatus(ctx context.Context, actorID string, statusID snowflake.ID) error

	LikeStatus(ctx context.Context, actorID string, statusID snowflake.ID) (*LikeResult, error)
	UnlikeStatus(ctx context.Context, actorID string, statusID snowflake.ID) error

	Reply(ctx context.Context, actorID string, statusID snowflake.ID, content string) (*Reply, error)
	ListReplies(ctx context.Context, actorID string, statusID snowflake.ID, page pagination.Pagination) (*ListRepliesResponse, error)
	// DeleteReply is allowed for the reply author and the status author.
	DeleteReply(ctx context.Context, actorID string, replyID snowflake.ID) error
}

type ListStatusesResponse struct {
	Statuses []Status            `json:"statuses"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type ListRepliesResponse struct {
	Replies  []Reply             `json:"replies"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidStatus  = apperror.Validation("invalid_status")
	ErrInvalidReply   = apperror.Validation("invalid_reply")
	ErrStatusNotFound = apperror.NotFound("status_not_found")
	ErrReplyNotFound  = apperror.NotFound("reply_not_found")
	ErrLikeNotFound   = apperror.NotFound("like_not_found")
	ErrNotAuthor      = apperror.Permission("not_author")
)
