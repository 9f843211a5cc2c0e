package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Me(c *gin.Context) {
	user, err := s.userSvc.Get(c.Request.Context(), actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}
