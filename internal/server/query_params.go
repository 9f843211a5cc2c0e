package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// parseID reads a snowflake path parameter. Malformed ids are a validation error.
func parseID(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := snowflake.ParseString(raw)
	if err != nil || parsed <= 0 {
		return 0, newValidationError(name, "invalid_id", "invalid "+name)
	}
	return parsed, nil
}

func parseUserParam(c *gin.Context, name string) (string, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return "", newValidationError(name, "required", name+" is required")
	}
	return raw, nil
}
