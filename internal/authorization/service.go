package authorization

import (
	"context"

	"github.com/smallbiznis/chirp/pkg/apperror"
)

var (
	ErrNotMember   = apperror.Permission("not_a_member")
	ErrForbidden   = apperror.Permission("insufficient_role")
	ErrInvalidRole = apperror.Validation("invalid_role")
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const (
	ObjectGroup      = "group"
	ObjectMember     = "member"
	ObjectInvitation = "invitation"
	ObjectPost       = "post"
)

const (
	ActionGroupUpdate = "group.update"
	ActionGroupDelete = "group.delete"

	ActionMemberAdd     = "member.add"
	ActionMemberRemove  = "member.remove"
	ActionMemberSetRole = "member.set_role"
	ActionMemberList    = "member.list"

	ActionInvitationCreate = "invitation.create"
	ActionInvitationRevoke = "invitation.revoke"

	ActionPostCreate = "post.create"
	ActionPostList   = "post.list"
	ActionPostDelete = "post.delete"
	ActionPostLike   = "post.like"
	ActionPostReply  = "post.reply"
)

// Service answers whether a group role may perform an action.
// An empty role means the actor holds no membership in the group.
type Service interface {
	Authorize(ctx context.Context, role string, action string) error
	Can(role string, action string) bool
}

// ValidRole reports whether role names a membership role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}
