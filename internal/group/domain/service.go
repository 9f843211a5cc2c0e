package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invitationdomain "github.com/smallbiznis/chirp/internal/invitation/domain"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

// Service is the membership manager. Every method takes the acting user explicitly.
type Service interface {
	CreateGroup(ctx context.Context, actorID string, req CreateGroupRequest) (*Group, error)
	GetGroup(ctx context.Context, actorID string, groupID snowflake.ID) (*Group, error)
	ListGroups(ctx context.Context, actorID string) ([]GroupWithRole, error)
	// SearchGroups finds groups whose name contains query, ignoring case.
	SearchGroups(ctx context.Context, actorID string, query string, page pagination.Pagination) (*SearchGroupsResponse, error)
	UpdateGroup(ctx context.Context, actorID string, groupID snowflake.ID, req UpdateGroupRequest) (*Group, error)
	DeleteGroup(ctx context.Context, actorID string, groupID snowflake.ID) error

	ListMembers(ctx context.Context, actorID string, groupID snowflake.ID) ([]Membership, error)
	AddMember(ctx context.Context, actorID string, groupID snowflake.ID, targetID string) (*Membership, error)
	RemoveMember(ctx context.Context, actorID string, groupID snowflake.ID, targetID string, opts RemoveMemberOptions) error
	SetRole(ctx context.Context, actorID string, groupID snowflake.ID, targetID string, role string) (*Membership, error)

	Invite(ctx context.Context, actorID string, groupID snowflake.ID, inviteeID string) (*invitationdomain.Invitation, error)
	ListInvitations(ctx context.Context, actorID string) ([]invitationdomain.Invitation, error)
	AcceptInvite(ctx context.Context, actorID string, invitationID snowflake.ID) (*Membership, error)
	DeclineInvite(ctx context.Context, actorID string, invitationID snowflake.ID) (*invitationdomain.Invitation, error)
	RevokeInvite(ctx context.Context, actorID string, invitationID snowflake.ID) (*invitationdomain.Invitation, error)

	// MembershipOf returns the actor's membership, nil when not a member.
	MembershipOf(ctx context.Context, groupID snowflake.ID, userID string) (*Membership, error)
}

type CreateGroupRequest struct {
	Name        string
	Description string
}

type UpdateGroupRequest struct {
	Name        *string
	Description *string
}

type SearchGroupsResponse struct {
	Groups   []Group             `json:"groups"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// RemoveMemberOptions lets an admin hand over the admin role while leaving.
type RemoveMemberOptions struct {
	PromoteUserID string
}

// MaxDescriptionLength bounds group descriptions in runes.
const MaxDescriptionLength = 1000

var (
	ErrInvalidName        = apperror.Validation("invalid_name")
	ErrInvalidDescription = apperror.Validation("invalid_description")
	ErrInvalidGroup       = apperror.Validation("invalid_group")
	ErrInvalidPromotion   = apperror.Validation("invalid_promotion")
	ErrInvalidQuery       = apperror.Validation("invalid_query")
	ErrGroupNotFound      = apperror.NotFound("group_not_found")
	ErrMemberNotFound     = apperror.NotFound("member_not_found")
	ErrGroupNameTaken     = apperror.Conflict("group_name_taken")
	ErrAlreadyMember      = apperror.Conflict("already_member")
	ErrLastAdmin          = apperror.Conflict("last_admin")
)
