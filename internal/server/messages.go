package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

func (s *Server) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		AbortWithError(c, newValidationError("recipient_id", "required", "recipient_id is required"))
		return
	}

	message, err := s.messageSvc.SendMessage(c.Request.Context(), actorID(c), req.RecipientID, req.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": message})
}

func (s *Server) ListMessages(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.messageSvc.ListMessages(c.Request.Context(), actorID(c), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Messages, "page_info": resp.PageInfo})
}

func (s *Server) GetMessage(c *gin.Context) {
	messageID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	message, err := s.messageSvc.GetMessage(c.Request.Context(), actorID(c), messageID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": message})
}

func (s *Server) ListConversation(c *gin.Context) {
	otherID, err := parseUserParam(c, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.messageSvc.ListConversation(c.Request.Context(), actorID(c), otherID, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Messages, "page_info": resp.PageInfo})
}

func (s *Server) MarkMessageRead(c *gin.Context) {
	messageID, err := parseID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	message, err := s.messageSvc.MarkRead(c.Request.Context(), actorID(c), messageID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": message})
}

func (s *Server) UnreadMessageCount(c *gin.Context) {
	n, err := s.messageSvc.UnreadCount(c.Request.Context(), actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unread": n}})
}
