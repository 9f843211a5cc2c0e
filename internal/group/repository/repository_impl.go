package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/group/domain"
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

func (r *repository) CreateGroup(ctx context.Context, group domain.Group) error {
	return r.db.WithContext(ctx).Create(&group).Error
}

func (r *repository) GetGroup(ctx context.Context, id snowflake.ID) (*domain.Group, error) {
	return r.findGroup(r.db.WithContext(ctx), id)
}

func (r *repository) LockGroup(ctx context.Context, id snowflake.ID) (*domain.Group, error) {
	return r.findGroup(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repository) findGroup(q *gorm.DB, id snowflake.ID) (*domain.Group, error) {
	var group domain.Group
	err := q.Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) UpdateGroup(ctx context.Context, group domain.Group) error {
	return r.db.WithContext(ctx).Model(&domain.Group{}).
		Where("id = ?", group.ID).
		Updates(map[string]any{
			"name":        group.Name,
			"name_key":    group.NameKey,
			"slug":        group.Slug,
			"description": group.Description,
			"updated_at":  group.UpdatedAt,
		}).Error
}

// DeleteGroup removes the group and its posts with their likes and replies.
// Post tables are addressed by name since the post package depends on this one.
func (r *repository) DeleteGroup(ctx context.Context, id snowflake.ID) error {
	db := r.db.WithContext(ctx)
	for _, stmt := range []string{
		`DELETE FROM group_post_likes WHERE post_id IN (SELECT id FROM group_posts WHERE group_id = ?)`,
		`DELETE FROM group_post_replies WHERE post_id IN (SELECT id FROM group_posts WHERE group_id = ?)`,
		`DELETE FROM group_posts WHERE group_id = ?`,
	} {
		if err := db.Exec(stmt, id).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ?", id).Delete(&domain.Group{}).Error
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *repository) SearchGroups(ctx context.Context, key string, page pagination.Pagination) ([]domain.Group, error) {
	q, err := pagination.ApplyNewestFirst(
		r.db.WithContext(ctx).Model(&domain.Group{}).
			Where("social_groups.name_key LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(key)+"%"),
		page,
		"social_groups",
	)
	if err != nil {
		return nil, err
	}

	var items []domain.Group
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListGroupsByUser(ctx context.Context, userID string) ([]domain.GroupWithRole, error) {
	var memberships []domain.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at ASC").Order("id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []domain.GroupWithRole{}, nil
	}

	ids := make([]snowflake.ID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	var groups []domain.Group
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]domain.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	items := make([]domain.GroupWithRole, 0, len(memberships))
	for _, m := range memberships {
		g, ok := byID[m.GroupID]
		if !ok {
			continue
		}
		items = append(items, domain.GroupWithRole{Group: g, Role: m.Role})
	}
	return items, nil
}

func (r *repository) AddMember(ctx context.Context, member domain.Membership) error {
	return r.db.WithContext(ctx).Create(&member).Error
}

func (r *repository) GetMembership(ctx context.Context, groupID snowflake.ID, userID string) (*domain.Membership, error) {
	var member domain.Membership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, groupID snowflake.ID) ([]domain.Membership, error) {
	var items []domain.Membership
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateRole(ctx context.Context, groupID snowflake.ID, userID string, role string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	return res.RowsAffected, res.Error
}

func (r *repository) RemoveMember(ctx context.Context, groupID snowflake.ID, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&domain.Membership{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteMembers(ctx context.Context, groupID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&domain.Membership{}).Error
}

func (r *repository) CountAdmins(ctx context.Context, groupID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("group_id = ? AND role = ?", groupID, "admin").
		Count(&count).Error
	return count, err
}
