// Package domain contains the direct message model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DirectMessage is readable only by its sender and recipient. ReadAt is set
// once, when the recipient first marks the message read.
type DirectMessage struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SenderID    string       `gorm:"type:varchar(191);not null;index:ix_direct_messages_sender,priority:1" json:"sender_id"`
	RecipientID string       `gorm:"type:varchar(191);not null;index:ix_direct_messages_recipient,priority:1" json:"recipient_id"`
	Content     string       `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time    `gorm:"not null;index:ix_direct_messages_sender,priority:2;index:ix_direct_messages_recipient,priority:2" json:"created_at"`
	ReadAt      *time.Time   `gorm:"index:ix_direct_messages_unread" json:"read_at"`
}

func (DirectMessage) TableName() string { return "direct_messages" }
