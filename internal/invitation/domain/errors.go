package domain

import "github.com/smallbiznis/chirp/pkg/apperror"

var (
	ErrInvalidInvitation  = apperror.Validation("invalid_invitation")
	ErrInvitationNotFound = apperror.NotFound("invitation_not_found")
	ErrNotPending         = apperror.State("invitation_not_pending")
	ErrAlreadyInvited     = apperror.Conflict("already_invited")
	ErrNotInvitee         = apperror.Permission("not_invitee")
	ErrCannotRevoke       = apperror.Permission("cannot_revoke")
)
