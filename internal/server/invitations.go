package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createInvitationRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) CreateInvitation(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("user_id", "required", "user_id is required"))
		return
	}

	invitation, err := s.groupSvc.Invite(c.Request.Context(), actorID(c), groupID, req.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitation})
}

func (s *Server) ListInvitations(c *gin.Context) {
	invitations, err := s.groupSvc.ListInvitations(c.Request.Context(), actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitations})
}

func (s *Server) AcceptInvitation(c *gin.Context) {
	invitationID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	member, err := s.groupSvc.AcceptInvite(c.Request.Context(), actorID(c), invitationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": member})
}

func (s *Server) DeclineInvitation(c *gin.Context) {
	s.resolveInvitation(c, func(ctx context.Context, actor string, id snowflake.ID) (any, error) {
		return s.groupSvc.DeclineInvite(ctx, actor, id)
	})
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	s.resolveInvitation(c, func(ctx context.Context, actor string, id snowflake.ID) (any, error) {
		return s.groupSvc.RevokeInvite(ctx, actor, id)
	})
}

func (s *Server) resolveInvitation(c *gin.Context, resolve func(context.Context, string, snowflake.ID) (any, error)) {
	invitationID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invitation, err := resolve(c.Request.Context(), actorID(c), invitationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitation})
}
