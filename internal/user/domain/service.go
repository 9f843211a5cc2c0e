package domain

import (
	"context"

	"github.com/smallbiznis/chirp/pkg/apperror"
)

type Service interface {
	// Touch records the user, refreshing the username when one is given.
	Touch(ctx context.Context, id string, username string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

var (
	ErrInvalidUser  = apperror.Validation("invalid_user")
	ErrUserNotFound = apperror.NotFound("user_not_found")
)

// MaxIDLength bounds token subjects so they fit the users primary key.
const MaxIDLength = 191
