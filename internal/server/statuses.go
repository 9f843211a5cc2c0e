package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

func (s *Server) CreateStatus(c *gin.Context) {
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status, err := s.statusSvc.CreateStatus(c.Request.Context(), actorID(c), req.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) ListUserStatuses(c *gin.Context) {
	userID, err := parseUserParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.statusSvc.ListStatuses(c.Request.Context(), actorID(c), userID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Statuses, "page_info": resp.PageInfo})
}

func (s *Server) DeleteStatus(c *gin.Context) {
	statusID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.statusSvc.DeleteStatus(c.Request.Context(), actorID(c), statusID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) LikeStatus(c *gin.Context) {
	statusID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.statusSvc.LikeStatus(c.Request.Context(), actorID(c), statusID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": likeResponse(res.Created, res.LikeCount)})
}

func (s *Server) UnlikeStatus(c *gin.Context) {
	statusID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.statusSvc.UnlikeStatus(c.Request.Context(), actorID(c), statusID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateStatusReply(c *gin.Context) {
	statusID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reply, err := s.statusSvc.Reply(c.Request.Context(), actorID(c), statusID, req.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reply})
}

func (s *Server) ListStatusReplies(c *gin.Context) {
	statusID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.statusSvc.ListReplies(c.Request.Context(), actorID(c), statusID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Replies, "page_info": resp.PageInfo})
}

func (s *Server) DeleteStatusReply(c *gin.Context) {
	replyID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.statusSvc.DeleteReply(c.Request.Context(), actorID(c), replyID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// likeResponse tells a new like apart from a repeated one.
func likeResponse(created bool, count int64) gin.H {
	state := "already_liked"
	if created {
		state = "liked"
	}
	return gin.H{"status": state, "like_count": count}
}
