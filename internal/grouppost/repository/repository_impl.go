package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/grouppost/domain"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *repository) Create(ctx context.Context, post domain.GroupPost) error {
	return r.db.WithContext(ctx).Create(&post).Error
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*domain.GroupPost, error) {
	var post domain.GroupPost
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) ListByGroup(ctx context.Context, groupID snowflake.ID, page pagination.Pagination) ([]domain.GroupPost, error) {
	q, err := pagination.ApplyNewestFirst(
		r.db.WithContext(ctx).Model(&domain.GroupPost{}).Where("group_posts.group_id = ?", groupID),
		page,
		"group_posts",
	)
	if err != nil {
		return nil, err
	}

	var items []domain.GroupPost
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
		return err
	}
	if err := db.Where("post_id = ?", id).Delete(&domain.Reply{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&domain.GroupPost{}).Error
}

func (r *repository) AddLike(ctx context.Context, like domain.Like) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) RemoveLike(ctx context.Context, postID snowflake.ID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&domain.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) LikedBy(ctx context.Context, userID string, ids []snowflake.ID) (map[snowflake.ID]bool, error) {
	liked := make(map[snowflake.ID]bool, len(ids))
	if len(ids) == 0 {
		return liked, nil
	}
	var postIDs []snowflake.ID
	err := r.db.WithContext(ctx).Model(&domain.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, ids).
		Pluck("post_id", &postIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range postIDs {
		liked[id] = true
	}
	return liked, nil
}

func (r *repository) AdjustCounts(ctx context.Context, id snowflake.ID, likes, replies int64) error {
	return r.db.WithContext(ctx).Model(&domain.GroupPost{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"like_count":  gorm.Expr("like_count + ?", likes),
			"reply_count": gorm.Expr("reply_count + ?", replies),
		}).Error
}

func (r *repository) CreateReply(ctx context.Context, reply domain.Reply) error {
	return r.db.WithContext(ctx).Create(&reply).Error
}

func (r *repository) GetReply(ctx context.Context, id snowflake.ID) (*domain.Reply, error) {
	var reply domain.Reply
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *repository) ListReplies(ctx context.Context, postID snowflake.ID, page pagination.Pagination) ([]domain.Reply, error) {
	q, err := pagination.ApplyOldestFirst(
		r.db.WithContext(ctx).Model(&domain.Reply{}).Where("group_post_replies.post_id = ?", postID),
		page,
		"group_post_replies",
	)
	if err != nil {
		return nil, err
	}

	var items []domain.Reply
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) DeleteReply(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Reply{}).Error
}
