package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/invitation/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invitation domain.Invitation) error {
	return r.db.WithContext(ctx).Create(&invitation).Error
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindPending(ctx context.Context, groupID snowflake.ID, inviteeID string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND invitee_id = ? AND status = ?", groupID, inviteeID, domain.StatusPending).
		First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ListPendingByInvitee(ctx context.Context, inviteeID string) ([]domain.Invitation, error) {
	var items []domain.Invitation
	err := r.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", inviteeID, domain.StatusPending).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Resolve(ctx context.Context, id snowflake.ID, status domain.Status, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, resolved_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		at,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RevokePending(ctx context.Context, groupID snowflake.ID, inviteeID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, resolved_at = ?
		 WHERE group_id = ? AND invitee_id = ? AND status = ?`,
		domain.StatusRevoked,
		at,
		groupID,
		inviteeID,
		domain.StatusPending,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByGroup(ctx context.Context, groupID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&domain.Invitation{}).Error
}
