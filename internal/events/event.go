// Package events records domain events in an outbox table inside the caller's
// transaction and relays them to Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/pkg/telemetry/correlation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TopicGroupCreated = "group.created"
	TopicGroupUpdated = "group.updated"
	TopicGroupDeleted = "group.deleted"

	TopicMemberAdded       = "member.added"
	TopicMemberRemoved     = "member.removed"
	TopicMemberRoleChanged = "member.role_changed"

	TopicInvitationCreated  = "invitation.created"
	TopicInvitationAccepted = "invitation.accepted"
	TopicInvitationDeclined = "invitation.declined"
	TopicInvitationRevoked  = "invitation.revoked"

	TopicGroupPostCreated      = "group_post.created"
	TopicGroupPostDeleted      = "group_post.deleted"
	TopicGroupPostLiked        = "group_post.liked"
	TopicGroupPostReplied      = "group_post.replied"
	TopicGroupPostReplyDeleted = "group_post.reply_deleted"

	TopicDirectMessageSent = "direct_message.sent"
	TopicDirectMessageRead = "direct_message.read"

	TopicStatusCreated      = "status.created"
	TopicStatusDeleted      = "status.deleted"
	TopicStatusLiked        = "status.liked"
	TopicStatusReplied      = "status.replied"
	TopicStatusReplyDeleted = "status.reply_deleted"
)

// OutboxEvent is one row of the outbox_events table.
type OutboxEvent struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Topic       string            `gorm:"type:varchar(64);not null;index" json:"topic"`
	AggregateID string            `gorm:"type:varchar(191);not null" json:"aggregate_id"`
	Payload     datatypes.JSON    `gorm:"not null" json:"payload"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	Published   bool              `gorm:"not null;default:false;index:ix_outbox_events_pending,priority:1" json:"published"`
	CreatedAt   time.Time         `gorm:"not null;index:ix_outbox_events_pending,priority:2" json:"created_at"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Publisher appends events to the outbox. Bind it to the surrounding
// transaction with WithTx so the event commits with the state change.
type Publisher interface {
	WithTx(tx *gorm.DB) Publisher
	Publish(ctx context.Context, topic string, aggregateID string, payload any) error
}

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewOutboxPublisher(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) Publisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
		clock: clk,
	}
}

func (p *outboxPublisher) WithTx(tx *gorm.DB) Publisher {
	return &outboxPublisher{db: tx, genID: p.genID, clock: p.clock}
}

func (p *outboxPublisher) Publish(ctx context.Context, topic string, aggregateID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	now := p.clock.Now()
	metadata := datatypes.JSONMap{}
	for k, v := range correlation.Metadata(ctx, now) {
		metadata[k] = v
	}

	event := OutboxEvent{
		ID:          p.genID.Generate(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     datatypes.JSON(data),
		Metadata:    metadata,
		CreatedAt:   now,
	}
	if err := p.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("append %s event: %w", topic, err)
	}
	return nil
}
