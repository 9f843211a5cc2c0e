package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

type createContentRequest struct {
	Content string `json:"content"`
}

func (s *Server) CreateGroupPost(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	post, err := s.groupPostSvc.CreatePost(c.Request.Context(), actorID(c), groupID, req.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": post})
}

func (s *Server) ListGroupPosts(c *gin.Context) {
	groupID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.groupPostSvc.ListPosts(c.Request.Context(), actorID(c), groupID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Posts, "page_info": resp.PageInfo})
}

func (s *Server) DeleteGroupPost(c *gin.Context) {
	postID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupPostSvc.DeletePost(c.Request.Context(), actorID(c), postID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) LikeGroupPost(c *gin.Context) {
	postID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.groupPostSvc.LikePost(c.Request.Context(), actorID(c), postID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": likeResponse(res.Created, res.LikeCount)})
}

func (s *Server) UnlikeGroupPost(c *gin.Context) {
	postID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupPostSvc.UnlikePost(c.Request.Context(), actorID(c), postID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateGroupPostReply(c *gin.Context) {
	postID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reply, err := s.groupPostSvc.Reply(c.Request.Context(), actorID(c), postID, req.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reply})
}

func (s *Server) ListGroupPostReplies(c *gin.Context) {
	postID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.groupPostSvc.ListReplies(c.Request.Context(), actorID(c), postID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Replies, "page_info": resp.PageInfo})
}

func (s *Server) DeleteGroupPostReply(c *gin.Context) {
	replyID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupPostSvc.DeleteReply(c.Request.Context(), actorID(c), replyID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
