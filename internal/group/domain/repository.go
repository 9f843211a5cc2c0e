package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateGroup(ctx context.Context, group Group) error
	GetGroup(ctx context.Context, id snowflake.ID) (*Group, error)
	// LockGroup loads the group row FOR UPDATE so membership changes on one
	// group are serialized. SQLite ignores the lock and relies on its writer lock.
	LockGroup(ctx context.Context, id snowflake.ID) (*Group, error)
	UpdateGroup(ctx context.Context, group Group) error
	DeleteGroup(ctx context.Context, id snowflake.ID) error
	ListGroupsByUser(ctx context.Context, userID string) ([]GroupWithRole, error)
	// SearchGroups matches key as a substring of name_key, newest first,
	// returning up to page.Limit()+1 groups.
	SearchGroups(ctx context.Context, key string, page pagination.Pagination) ([]Group, error)

	AddMember(ctx context.Context, member Membership) error
	GetMembership(ctx context.Context, groupID snowflake.ID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, groupID snowflake.ID) ([]Membership, error)
	UpdateRole(ctx context.Context, groupID snowflake.ID, userID string, role string) (int64, error)
	RemoveMember(ctx context.Context, groupID snowflake.ID, userID string) (int64, error)
	DeleteMembers(ctx context.Context, groupID snowflake.ID) error
	CountAdmins(ctx context.Context, groupID snowflake.ID) (int64, error)
}
