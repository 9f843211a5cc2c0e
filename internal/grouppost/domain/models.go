// Package domain contains the group post model and its likes and replies.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GroupPost is a message visible to the members of one group.
type GroupPost struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	GroupID    snowflake.ID `gorm:"not null;index:ix_group_posts_group_created,priority:1" json:"group_id"`
	AuthorID   string       `gorm:"type:varchar(191);not null" json:"author_id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	LikeCount  int64        `gorm:"not null;default:0" json:"like_count"`
	ReplyCount int64        `gorm:"not null;default:0" json:"reply_count"`
	CreatedAt  time.Time    `gorm:"not null;index:ix_group_posts_group_created,priority:2" json:"created_at"`

	Liked bool `gorm:"-" json:"is_liked"`
}

func (GroupPost) TableName() string { return "group_posts" }

type Like struct {
	PostID    snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    string       `gorm:"primaryKey;type:varchar(191);index" json:"user_id"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Like) TableName() string { return "group_post_likes" }

type Reply struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	PostID    snowflake.ID `gorm:"not null;index:ix_group_post_replies_post_created,priority:1" json:"post_id"`
	AuthorID  string       `gorm:"type:varchar(191);not null" json:"author_id"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time    `gorm:"not null;index:ix_group_post_replies_post_created,priority:2" json:"created_at"`
}

func (Reply) TableName() string { return "group_post_replies" }

type LikeResult struct {
	Created   bool  `json:"created"`
	LikeCount int64 `json:"like_count"`
}
