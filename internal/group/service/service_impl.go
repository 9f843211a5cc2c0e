package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/chirp/internal/authorization"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/events"
	"github.com/smallbiznis/chirp/internal/group/domain"
	invitationdomain "github.com/smallbiznis/chirp/internal/invitation/domain"
	"github.com/smallbiznis/chirp/internal/observability/metrics"
	userdomain "github.com/smallbiznis/chirp/internal/user/domain"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           domain.Repository
	InvitationRepo invitationdomain.Repository
	UserRepo       userdomain.Repository
	Publisher      events.Publisher
	Authz          authorization.Service
	Limits         *config.LimitsHolder
	Metrics        *metrics.Metrics `optional:"true"`
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	invitations invitationdomain.Repository
	users       userdomain.Repository
	publisher   events.Publisher
	authz       authorization.Service
	limits      *config.LimitsHolder
	metrics     *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("group.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invitations: p.InvitationRepo,
		users:       p.UserRepo,
		publisher:   p.Publisher,
		authz:       p.Authz,
		limits:      p.Limits,
		metrics:     p.Metrics,
	}
}

// txDeps binds every store to one transaction.
type txDeps struct {
	groups      domain.Repository
	invitations invitationdomain.Repository
	users       userdomain.Repository
	events      events.Publisher
}

func (s *service) bind(tx *gorm.DB) txDeps {
	return txDeps{
		groups:      s.repo.WithTx(tx),
		invitations: s.invitations.WithTx(tx),
		users:       s.users.WithTx(tx),
		events:      s.publisher.WithTx(tx),
	}
}

func (s *service) CreateGroup(ctx context.Context, actorID string, req domain.CreateGroupRequest) (*domain.Group, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	name, err := s.normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	description, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	group := domain.Group{
		ID:          s.genID.Generate(),
		Name:        name,
		NameKey:     domain.NameKey(name),
		Description: description,
		CreatorID:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	group.Slug = makeSlug(name, group.ID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		if err := deps.groups.CreateGroup(ctx, group); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrGroupNameTaken
			}
			return fmt.Errorf("create group: %w", err)
		}

		member := domain.Membership{
			ID:       s.genID.Generate(),
			GroupID:  group.ID,
			UserID:   actorID,
			Role:     authorization.RoleAdmin,
			JoinedAt: now,
		}
		if err := deps.groups.AddMember(ctx, member); err != nil {
			return fmt.Errorf("add creator membership: %w", err)
		}

		return deps.events.Publish(ctx, events.TopicGroupCreated, group.ID.String(), group)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordGroupCreated(ctx)
	s.log.Debug("group created", zap.String("group_id", group.ID.String()), zap.String("actor_id", actorID))
	return &group, nil
}

func (s *service) GetGroup(ctx context.Context, actorID string, groupID snowflake.ID) (*domain.Group, error) {
	if _, err := normalizeUserID(actorID); err != nil {
		return nil, err
	}
	if groupID == 0 {
		return nil, domain.ErrInvalidGroup
	}

	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

func (s *service) ListGroups(ctx context.Context, actorID string) ([]domain.GroupWithRole, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListGroupsByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return items, nil
}

func (s *service) SearchGroups(ctx context.Context, actorID string, query string, page pagination.Pagination) (*domain.SearchGroupsResponse, error) {
	if _, err := normalizeUserID(actorID); err != nil {
		return nil, err
	}
	if !utf8.ValidString(query) {
		return nil, domain.ErrInvalidQuery
	}
	key := domain.NameKey(query)
	if key == "" || utf8.RuneCountInString(key) > s.limits.Get().GroupNameMax {
		return nil, domain.ErrInvalidQuery
	}

	items, err := s.repo.SearchGroups(ctx, key, page)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return nil, err
		}
		return nil, fmt.Errorf("search groups: %w", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(g domain.Group) pagination.Cursor {
		return pagination.NewCursor(g.ID, g.CreatedAt)
	})
	if items == nil {
		items = []domain.Group{}
	}
	return &domain.SearchGroupsResponse{Groups: items, PageInfo: pageInfo}, nil
}

func (s *service) UpdateGroup(ctx context.Context, actorID string, groupID snowflake.ID, req domain.UpdateGroupRequest) (*domain.Group, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}

	var name, description *string
	if req.Name != nil {
		v, err := s.normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		name = &v
	}
	if req.Description != nil {
		v, err := normalizeDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		description = &v
	}

	var updated domain.Group
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, _, err := s.authorize(ctx, deps, groupID, actorID, authorization.ActionGroupUpdate)
		if err != nil {
			return err
		}

		updated = *group
		if name == nil && description == nil {
			return nil
		}
		if name != nil {
			updated.Name = *name
			updated.NameKey = domain.NameKey(*name)
			updated.Slug = makeSlug(*name, group.ID)
		}
		if description != nil {
			updated.Description = *description
		}
		updated.UpdatedAt = s.clock.Now()

		if err := deps.groups.UpdateGroup(ctx, updated); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrGroupNameTaken
			}
			return fmt.Errorf("update group: %w", err)
		}
		return deps.events.Publish(ctx, events.TopicGroupUpdated, updated.ID.String(), updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) DeleteGroup(ctx context.Context, actorID string, groupID snowflake.ID) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, _, err := s.authorize(ctx, deps, groupID, actorID, authorization.ActionGroupDelete)
		if err != nil {
			return err
		}

		if err := deps.invitations.DeleteByGroup(ctx, group.ID); err != nil {
			return fmt.Errorf("delete invitations: %w", err)
		}
		if err := deps.groups.DeleteMembers(ctx, group.ID); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if err := deps.groups.DeleteGroup(ctx, group.ID); err != nil {
			return fmt.Errorf("delete group: %w", err)
		}

		return deps.events.Publish(ctx, events.TopicGroupDeleted, group.ID.String(), map[string]any{
			"group_id":   group.ID,
			"deleted_by": actorID,
		})
	})
}

func (s *service) ListMembers(ctx context.Context, actorID string, groupID snowflake.ID) ([]domain.Membership, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}

	var items []domain.Membership
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, _, err := s.authorize(ctx, deps, groupID, actorID, authorization.ActionMemberList)
		if err != nil {
			return err
		}
		items, err = deps.groups.ListMembers(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) AddMember(ctx context.Context, actorID string, groupID snowflake.ID, targetID string) (*domain.Membership, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	targetID, err = normalizeUserID(targetID)
	if err != nil {
		return nil, err
	}

	var member domain.Membership
	var revoked int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, _, err := s.authorize(ctx, deps, groupID, actorID, authorization.ActionMemberAdd)
		if err != nil {
			return err
		}

		if err := requireUser(ctx, deps.users, targetID); err != nil {
			return err
		}
		existing, err := deps.groups.GetMembership(ctx, group.ID, targetID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if existing != nil {
			return domain.ErrAlreadyMember
		}

		now := s.clock.Now()
		revoked, err = deps.invitations.RevokePending(ctx, group.ID, targetID, now)
		if err != nil {
			return fmt.Errorf("revoke pending invitation: %w", err)
		}

		member = domain.Membership{
			ID:       s.genID.Generate(),
			GroupID:  group.ID,
			UserID:   targetID,
			Role:     authorization.RoleMember,
			JoinedAt: now,
		}
		if err := deps.groups.AddMember(ctx, member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyMember
			}
			return fmt.Errorf("add member: %w", err)
		}
		return deps.events.Publish(ctx, events.TopicMemberAdded, group.ID.String(), member)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMembershipChange(ctx, "added")
	for i := int64(0); i < revoked; i++ {
		s.metrics.RecordInvitationTransition(ctx, string(invitationdomain.StatusRevoked))
	}
	return &member, nil
}

func (s *service) RemoveMember(ctx context.Context, actorID string, groupID snowflake.ID, targetID string, opts domain.RemoveMemberOptions) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}
	targetID, err = normalizeUserID(targetID)
	if err != nil {
		return err
	}
	promoteID := strings.TrimSpace(opts.PromoteUserID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, actor, err := s.loadForMutation(ctx, deps, groupID, actorID)
		if err != nil {
			return err
		}
		if actor == nil {
			return authorization.ErrNotMember
		}
		if actorID != targetID {
			if err := s.authz.Authorize(ctx, actor.Role, authorization.ActionMemberRemove); err != nil {
				return err
			}
		}

		target, err := deps.groups.GetMembership(ctx, group.ID, targetID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if target == nil {
			return domain.ErrMemberNotFound
		}

		var promoted *domain.Membership
		if promoteID != "" {
			if actor.Role != authorization.RoleAdmin {
				return authorization.ErrForbidden
			}
			if promoteID == targetID {
				return domain.ErrInvalidPromotion
			}
			promoted, err = deps.groups.GetMembership(ctx, group.ID, promoteID)
			if err != nil {
				return fmt.Errorf("get membership: %w", err)
			}
			if promoted == nil {
				return domain.ErrInvalidPromotion
			}
		}

		if target.Role == authorization.RoleAdmin && promoted == nil {
			admins, err := deps.groups.CountAdmins(ctx, group.ID)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return domain.ErrLastAdmin
			}
		}

		if promoted != nil && promoted.Role != authorization.RoleAdmin {
			if _, err := deps.groups.UpdateRole(ctx, group.ID, promoted.UserID, authorization.RoleAdmin); err != nil {
				return fmt.Errorf("promote member: %w", err)
			}
			promoted.Role = authorization.RoleAdmin
			if err := deps.events.Publish(ctx, events.TopicMemberRoleChanged, group.ID.String(), promoted); err != nil {
				return err
			}
		}

		affected, err := deps.groups.RemoveMember(ctx, group.ID, targetID)
		if err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		if affected == 0 {
			return domain.ErrMemberNotFound
		}

		return deps.events.Publish(ctx, events.TopicMemberRemoved, group.ID.String(), map[string]any{
			"group_id":   group.ID,
			"user_id":    targetID,
			"removed_by": actorID,
		})
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMembershipChange(ctx, "removed")
	if promoteID != "" {
		s.metrics.RecordMembershipChange(ctx, "role_changed")
	}
	return nil
}

func (s *service) SetRole(ctx context.Context, actorID string, groupID snowflake.ID, targetID string, role string) (*domain.Membership, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	targetID, err = normalizeUserID(targetID)
	if err != nil {
		return nil, err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !authorization.ValidRole(role) {
		return nil, authorization.ErrInvalidRole
	}

	var target *domain.Membership
	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, _, err := s.authorize(ctx, deps, groupID, actorID, authorization.ActionMemberSetRole)
		if err != nil {
			return err
		}

		target, err = deps.groups.GetMembership(ctx, group.ID, targetID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if target == nil {
			return domain.ErrMemberNotFound
		}
		if target.Role == role {
			return nil
		}

		if target.Role == authorization.RoleAdmin {
			admins, err := deps.groups.CountAdmins(ctx, group.ID)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return domain.ErrLastAdmin
			}
		}

		if _, err := deps.groups.UpdateRole(ctx, group.ID, targetID, role); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		target.Role = role
		changed = true
		return deps.events.Publish(ctx, events.TopicMemberRoleChanged, group.ID.String(), target)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.RecordMembershipChange(ctx, "role_changed")
	}
	return target, nil
}

func (s *service) Invite(ctx context.Context, actorID string, groupID snowflake.ID, inviteeID string) (*invitationdomain.Invitation, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	inviteeID, err = normalizeUserID(inviteeID)
	if err != nil {
		return nil, err
	}

	var invitation invitationdomain.Invitation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		group, _, err := s.authorize(ctx, deps, groupID, actorID, authorization.ActionInvitationCreate)
		if err != nil {
			return err
		}

		if err := requireUser(ctx, deps.users, inviteeID); err != nil {
			return err
		}
		existing, err := deps.groups.GetMembership(ctx, group.ID, inviteeID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if existing != nil {
			return domain.ErrAlreadyMember
		}
		pending, err := deps.invitations.FindPending(ctx, group.ID, inviteeID)
		if err != nil {
			return fmt.Errorf("find pending invitation: %w", err)
		}
		if pending != nil {
			return invitationdomain.ErrAlreadyInvited
		}

		invitation = invitationdomain.Invitation{
			ID:        s.genID.Generate(),
			GroupID:   group.ID,
			InviterID: actorID,
			InviteeID: inviteeID,
			Status:    invitationdomain.StatusPending,
			CreatedAt: s.clock.Now(),
		}
		if err := deps.invitations.Create(ctx, invitation); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return invitationdomain.ErrAlreadyInvited
			}
			return fmt.Errorf("create invitation: %w", err)
		}
		return deps.events.Publish(ctx, events.TopicInvitationCreated, invitation.ID.String(), invitation)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationTransition(ctx, string(invitationdomain.StatusPending))
	return &invitation, nil
}

func (s *service) ListInvitations(ctx context.Context, actorID string) ([]invitationdomain.Invitation, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	items, err := s.invitations.ListPendingByInvitee(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return items, nil
}

func (s *service) AcceptInvite(ctx context.Context, actorID string, invitationID snowflake.ID) (*domain.Membership, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}

	var member domain.Membership
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		invitation, err := loadInvitation(ctx, deps.invitations, invitationID)
		if err != nil {
			return err
		}
		if invitation.InviteeID != actorID {
			return invitationdomain.ErrNotInvitee
		}
		if invitation.Status != invitationdomain.StatusPending {
			return invitationdomain.ErrNotPending
		}

		group, err := deps.groups.LockGroup(ctx, invitation.GroupID)
		if err != nil {
			return fmt.Errorf("lock group: %w", err)
		}
		if group == nil {
			return domain.ErrGroupNotFound
		}

		now := s.clock.Now()
		ok, err := deps.invitations.Resolve(ctx, invitation.ID, invitationdomain.StatusAccepted, now)
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		if !ok {
			return invitationdomain.ErrNotPending
		}

		existing, err := deps.groups.GetMembership(ctx, group.ID, actorID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if existing != nil {
			return domain.ErrAlreadyMember
		}

		member = domain.Membership{
			ID:       s.genID.Generate(),
			GroupID:  group.ID,
			UserID:   actorID,
			Role:     authorization.RoleMember,
			JoinedAt: now,
		}
		if err := deps.groups.AddMember(ctx, member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyMember
			}
			return fmt.Errorf("add member: %w", err)
		}

		invitation.Status = invitationdomain.StatusAccepted
		invitation.ResolvedAt = &now
		if err := deps.events.Publish(ctx, events.TopicInvitationAccepted, invitation.ID.String(), invitation); err != nil {
			return err
		}
		return deps.events.Publish(ctx, events.TopicMemberAdded, group.ID.String(), member)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationTransition(ctx, string(invitationdomain.StatusAccepted))
	s.metrics.RecordMembershipChange(ctx, "added")
	return &member, nil
}

func (s *service) DeclineInvite(ctx context.Context, actorID string, invitationID snowflake.ID) (*invitationdomain.Invitation, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}

	return s.resolve(ctx, invitationID, invitationdomain.StatusDeclined, events.TopicInvitationDeclined,
		func(_ txDeps, invitation *invitationdomain.Invitation) error {
			if invitation.InviteeID != actorID {
				return invitationdomain.ErrNotInvitee
			}
			return nil
		})
}

func (s *service) RevokeInvite(ctx context.Context, actorID string, invitationID snowflake.ID) (*invitationdomain.Invitation, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}

	return s.resolve(ctx, invitationID, invitationdomain.StatusRevoked, events.TopicInvitationRevoked,
		func(deps txDeps, invitation *invitationdomain.Invitation) error {
			member, err := deps.groups.GetMembership(ctx, invitation.GroupID, actorID)
			if err != nil {
				return fmt.Errorf("get membership: %w", err)
			}
			// An inviter who left the group loses control of the invitation.
			if member == nil {
				return invitationdomain.ErrCannotRevoke
			}
			if invitation.InviterID != actorID && !s.authz.Can(member.Role, authorization.ActionInvitationRevoke) {
				return invitationdomain.ErrCannotRevoke
			}
			return nil
		})
}

// resolve runs the pending to terminal transition shared by decline and revoke.
func (s *service) resolve(
	ctx context.Context,
	invitationID snowflake.ID,
	to invitationdomain.Status,
	topic string,
	allowed func(txDeps, *invitationdomain.Invitation) error,
) (*invitationdomain.Invitation, error) {
	var invitation *invitationdomain.Invitation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deps := s.bind(tx)
		var err error
		invitation, err = loadInvitation(ctx, deps.invitations, invitationID)
		if err != nil {
			return err
		}
		if err := allowed(deps, invitation); err != nil {
			return err
		}
		if invitation.Status != invitationdomain.StatusPending {
			return invitationdomain.ErrNotPending
		}

		now := s.clock.Now()
		ok, err := deps.invitations.Resolve(ctx, invitation.ID, to, now)
		if err != nil {
			return fmt.Errorf("resolve invitation: %w", err)
		}
		if !ok {
			return invitationdomain.ErrNotPending
		}
		invitation.Status = to
		invitation.ResolvedAt = &now
		return deps.events.Publish(ctx, topic, invitation.ID.String(), invitation)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationTransition(ctx, string(to))
	return invitation, nil
}

func (s *service) MembershipOf(ctx context.Context, groupID snowflake.ID, userID string) (*domain.Membership, error) {
	member, err := s.repo.GetMembership(ctx, groupID, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return member, nil
}

// loadForMutation locks the group row and returns the actor's membership, nil
// when the actor is not a member.
func (s *service) loadForMutation(ctx context.Context, deps txDeps, groupID snowflake.ID, actorID string) (*domain.Group, *domain.Membership, error) {
	if groupID == 0 {
		return nil, nil, domain.ErrInvalidGroup
	}
	group, err := deps.groups.LockGroup(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock group: %w", err)
	}
	if group == nil {
		return nil, nil, domain.ErrGroupNotFound
	}
	member, err := deps.groups.GetMembership(ctx, group.ID, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("get membership: %w", err)
	}
	return group, member, nil
}

func (s *service) authorize(ctx context.Context, deps txDeps, groupID snowflake.ID, actorID string, action string) (*domain.Group, *domain.Membership, error) {
	group, member, err := s.loadForMutation(ctx, deps, groupID, actorID)
	if err != nil {
		return nil, nil, err
	}
	role := ""
	if member != nil {
		role = member.Role
	}
	if err := s.authz.Authorize(ctx, role, action); err != nil {
		return nil, nil, err
	}
	return group, member, nil
}

func (s *service) normalizeName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", domain.ErrInvalidName
	}
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" || utf8.RuneCountInString(name) > s.limits.Get().GroupNameMax {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return "", domain.ErrInvalidDescription
	}
	return description, nil
}

// makeSlug falls back to the group id for names with no sluggable characters.
func makeSlug(name string, id snowflake.ID) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return "group-" + id.String()
}

func normalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > userdomain.MaxIDLength {
		return "", userdomain.ErrInvalidUser
	}
	return id, nil
}

func requireUser(ctx context.Context, users userdomain.Repository, id string) error {
	ok, err := users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return userdomain.ErrUserNotFound
	}
	return nil
}

func loadInvitation(ctx context.Context, repo invitationdomain.Repository, id snowflake.ID) (*invitationdomain.Invitation, error) {
	if id == 0 {
		return nil, invitationdomain.ErrInvalidInvitation
	}
	invitation, err := repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if invitation == nil {
		return nil, invitationdomain.ErrInvitationNotFound
	}
	return invitation, nil
}
