package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, user User) error
	Get(ctx context.Context, id string) (*User, error)
	Exists(ctx context.Context, id string) (bool, error)
}
