package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/chirp/internal/observability/context"
	"github.com/smallbiznis/chirp/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
	contextUserIDKey    = "user_id"
)

// AuthRequired verifies the bearer token, records the user in the directory
// and exposes the caller's id to handlers.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(headerAuthorization))
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.verifier.Verify(header[len(bearerPrefix):])
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug("token rejected", zap.Error(err))
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if _, err := s.userSvc.Touch(c.Request.Context(), identity.UserID, identity.Username); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), identity.UserID))
		c.Set(contextUserIDKey, identity.UserID)
		c.Next()
	}
}

func actorID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}
