// Package domain contains the public status update model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	AuthorID   string       `gorm:"type:varchar(191);not null;index:ix_statuses_author_created,priority:1" json:"author_id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	LikeCount  int64        `gorm:"not null;default:0" json:"like_count"`
	ReplyCount int64        `gorm:"not null;default:0" json:"reply_count"`
	CreatedAt  time.Time    `gorm:"not null;index:ix_statuses_author_created,priority:2" json:"created_at"`

	// Liked reports whether the viewing user likes the status. Not stored.
	Liked bool `gorm:"-" json:"is_liked"`
}

func (Status) TableName() string { return "statuses" }

// Like is one user's like of a status. A user likes a status at most once.
type Like struct {
	StatusID  snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"status_id"`
	UserID    string       `gorm:"primaryKey;type:varchar(191);index" json:"user_id"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Like) TableName() string { return "status_likes" }

// Reply is a flat, chronological answer to a status.
type Reply struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StatusID  snowflake.ID `gorm:"not null;index:ix_status_replies_status_created,priority:1" json:"status_id"`
	AuthorID  string       `gorm:"type:varchar(191);not null" json:"author_id"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time    `gorm:"not null;index:ix_status_replies_status_created,priority:2" json:"created_at"`
}

func (Reply) TableName() string { return "status_replies" }

// LikeResult reports the like state after a like request. Created is false when
// the user already liked the status.
type LikeResult struct {
	Created   bool  `json:"created"`
	LikeCount int64 `json:"like_count"`
}
