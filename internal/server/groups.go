package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	groupdomain "github.com/smallbiznis/chirp/internal/group/domain"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type removeMemberRequest struct {
	PromoteUserID string `json:"promote_user_id"`
}

func (s *Server) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	group, err := s.groupSvc.CreateGroup(c.Request.Context(), actorID(c), groupdomain.CreateGroupRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": group})
}

func (s *Server) ListGroups(c *gin.Context) {
	groups, err := s.groupSvc.ListGroups(c.Request.Context(), actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": groups})
}

func (s *Server) SearchGroups(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.groupSvc.SearchGroups(c.Request.Context(), actorID(c), c.Query("q"), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Groups, "page_info": resp.PageInfo})
}

func (s *Server) GetGroup(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	group, err := s.groupSvc.GetGroup(c.Request.Context(), actorID(c), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": group})
}

func (s *Server) UpdateGroup(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	group, err := s.groupSvc.UpdateGroup(c.Request.Context(), actorID(c), groupID, groupdomain.UpdateGroupRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": group})
}

func (s *Server) DeleteGroup(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupSvc.DeleteGroup(c.Request.Context(), actorID(c), groupID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListMembers(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	members, err := s.groupSvc.ListMembers(c.Request.Context(), actorID(c), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": members})
}

func (s *Server) AddMember(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("user_id", "required", "user_id is required"))
		return
	}

	member, err := s.groupSvc.AddMember(c.Request.Context(), actorID(c), groupID, req.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": member})
}

// RemoveMember accepts promote_user_id as a query parameter or in the body.
func (s *Server) RemoveMember(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetID, err := parseUserParam(c, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	promoteID := strings.TrimSpace(c.Query("promote_user_id"))
	if promoteID == "" && c.Request.ContentLength > 0 {
		var req removeMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		promoteID = strings.TrimSpace(req.PromoteUserID)
	}

	err = s.groupSvc.RemoveMember(c.Request.Context(), actorID(c), groupID, targetID, groupdomain.RemoveMemberOptions{
		PromoteUserID: promoteID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SetMemberRole(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetID, err := parseUserParam(c, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	member, err := s.groupSvc.SetRole(c.Request.Context(), actorID(c), groupID, targetID, strings.TrimSpace(req.Role))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": member})
}
