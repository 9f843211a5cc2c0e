package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/directmessage/domain"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"gorm.io/gorm"
)

const table = "direct_messages"

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, message domain.DirectMessage) error {
	return r.db.WithContext(ctx).Create(&message).Error
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*domain.DirectMessage, error) {
	var message domain.DirectMessage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string, page pagination.Pagination) ([]domain.DirectMessage, error) {
	return r.list(ctx, page,
		"(direct_messages.sender_id = ? OR direct_messages.recipient_id = ?)",
		userID, userID,
	)
}

func (r *repository) ListBetween(ctx context.Context, userID, otherID string, page pagination.Pagination) ([]domain.DirectMessage, error) {
	return r.list(ctx, page,
		"((direct_messages.sender_id = ? AND direct_messages.recipient_id = ?) OR (direct_messages.sender_id = ? AND direct_messages.recipient_id = ?))",
		userID, otherID, otherID, userID,
	)
}

func (r *repository) MarkRead(ctx context.Context, id snowflake.ID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.DirectMessage{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.DirectMessage{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&n).Error
	return n, err
}

func (r *repository) list(ctx context.Context, page pagination.Pagination, where string, args ...any) ([]domain.DirectMessage, error) {
	q, err := pagination.ApplyNewestFirst(
		r.db.WithContext(ctx).Model(&domain.DirectMessage{}).Where(where, args...),
		page,
		table,
	)
	if err != nil {
		return nil, err
	}

	var items []domain.DirectMessage
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
