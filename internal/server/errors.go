package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/chirp/pkg/apperror"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if kind, ok := apperror.KindOf(err); ok {
		code := apperror.CodeOf(err)
		switch kind {
		case apperror.KindValidation:
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: "validation error",
				Errors: []ValidationError{
					{
						Field:   validationErrorField(code),
						Code:    code,
						Message: humanize(code),
					},
				},
			}
		case apperror.KindPermission:
			return http.StatusForbidden, errorPayload{
				Type:    "forbidden",
				Message: humanize(code),
			}
		case apperror.KindNotFound:
			return http.StatusNotFound, errorPayload{
				Type:    "not_found",
				Message: humanize(code),
			}
		case apperror.KindConflict:
			return http.StatusConflict, errorPayload{
				Type:    "conflict",
				Message: humanize(code),
			}
		case apperror.KindState:
			return http.StatusConflict, errorPayload{
				Type:    "invalid_state",
				Message: humanize(code),
			}
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// validationErrorField names the request field a domain validation code refers to.
func validationErrorField(code string) string {
	switch code {
	case "invalid_name":
		return "name"
	case "invalid_description":
		return "description"
	case "empty_content", "content_too_long", "invalid_content":
		return "content"
	case "invalid_role":
		return "role"
	case "invalid_promotion":
		return "promote_user_id"
	case "invalid_page_token":
		return "page_token"
	case "invalid_user":
		return "user_id"
	case "invalid_group":
		return "group_id"
	case "invalid_query":
		return "q"
	case "invalid_reply":
		return "reply_id"
	default:
		return "request"
	}
}

func humanize(code string) string {
	if code == "" {
		return "error"
	}
	return strings.ReplaceAll(code, "_", " ")
}
