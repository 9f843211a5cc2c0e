package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

type Service interface {
	SendMessage(ctx context.Context, senderID string, recipientID string, content string) (*DirectMessage, error)
	ListMessages(ctx context.Context, actorID string, page pagination.Pagination) (*ListMessagesResponse, error)
	ListConversation(ctx context.Context, actorID string, otherID string, page pagination.Pagination) (*ListMessagesResponse, error)
	// GetMessage reports ErrMessageNotFound to anyone but the two participants.
	GetMessage(ctx context.Context, actorID string, messageID snowflake.ID) (*DirectMessage, error)
	// MarkRead is allowed for the recipient only and keeps the first read time.
	MarkRead(ctx context.Context, actorID string, messageID snowflake.ID) (*DirectMessage, error)
	UnreadCount(ctx context.Context, actorID string) (int64, error)
}

type ListMessagesResponse struct {
	Messages []DirectMessage     `json:"messages"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidMessage  = apperror.Validation("invalid_message")
	ErrMessageNotFound = apperror.NotFound("message_not_found")
	ErrNotRecipient    = apperror.Permission("not_recipient")
)
