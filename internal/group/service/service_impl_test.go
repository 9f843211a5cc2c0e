package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/authorization"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/events"
	"github.com/smallbiznis/chirp/internal/group/domain"
	"github.com/smallbiznis/chirp/internal/group/repository"
	grouppostdomain "github.com/smallbiznis/chirp/internal/grouppost/domain"
	invitationdomain "github.com/smallbiznis/chirp/internal/invitation/domain"
	invitationrepo "github.com/smallbiznis/chirp/internal/invitation/repository"
	"github.com/smallbiznis/chirp/internal/migration"
	"github.com/smallbiznis/chirp/internal/observability/metrics"
	userdomain "github.com/smallbiznis/chirp/internal/user/domain"
	userrepo "github.com/smallbiznis/chirp/internal/user/repository"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	svc   domain.Service
	conn  *gorm.DB
	clock *clock.FakeClock
}

func newHarness(t *testing.T, users ...string) *harness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	users = append(users, "alice", "bob", "carol", "dave")
	userRepo := userrepo.NewRepository(conn)
	for _, id := range users {
		require.NoError(t, userRepo.Upsert(context.Background(), userdomain.User{ID: id, CreatedAt: clk.Now(), UpdatedAt: clk.Now()}))
	}

	svc := NewService(Params{
		DB:             conn,
		Log:            zap.NewNop(),
		GenID:          node,
		Clock:          clk,
		Repo:           repository.NewRepository(conn),
		InvitationRepo: invitationrepo.NewRepository(conn),
		UserRepo:       userRepo,
		Publisher:      events.NewOutboxPublisher(conn, node, clk),
		Authz:          authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		Limits:         config.NewStaticLimits(config.DefaultLimits()),
		Metrics:        metrics.NewNoop(),
	})
	return &harness{svc: svc, conn: conn, clock: clk}
}

func (h *harness) createGroup(t *testing.T, actor, name string) *domain.Group {
	t.Helper()
	group, err := h.svc.CreateGroup(context.Background(), actor, domain.CreateGroupRequest{Name: name})
	require.NoError(t, err)
	return group
}

func (h *harness) countTopic(t *testing.T, topic string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(&events.OutboxEvent{}).Where("topic = ?", topic).Count(&n).Error)
	return n
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	group, err := h.svc.CreateGroup(ctx, "alice", domain.CreateGroupRequest{Name: "  Go Gophers ", Description: "weekly meetups"})
	require.NoError(t, err)
	assert.Equal(t, "Go Gophers", group.Name)
	assert.Equal(t, "go-gophers", group.Slug)
	assert.Equal(t, "alice", group.CreatorID)

	members, err := h.svc.ListMembers(ctx, "alice", group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].UserID)
	assert.Equal(t, authorization.RoleAdmin, members[0].Role)

	assert.Equal(t, int64(1), h.countTopic(t, events.TopicGroupCreated))
}

func TestCreateGroupValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateGroup(ctx, "alice", domain.CreateGroupRequest{Name: "   "})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = h.svc.CreateGroup(ctx, "alice", domain.CreateGroupRequest{Name: strings.Repeat("é", 101)})
	require.ErrorIs(t, err, domain.ErrInvalidName)
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = h.svc.CreateGroup(ctx, "alice", domain.CreateGroupRequest{Name: strings.Repeat("é", 100)})
	require.NoError(t, err)

	_, err = h.svc.CreateGroup(ctx, "alice", domain.CreateGroupRequest{Name: "x", Description: strings.Repeat("d", domain.MaxDescriptionLength+1)})
	require.ErrorIs(t, err, domain.ErrInvalidDescription)

	_, err = h.svc.CreateGroup(ctx, "", domain.CreateGroupRequest{Name: "x"})
	require.ErrorIs(t, err, userdomain.ErrInvalidUser)
}

func TestCreateGroupNameConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createGroup(t, "alice", "Go Gophers")
	_, err := h.svc.CreateGroup(ctx, "bob", domain.CreateGroupRequest{Name: "go gophers"})
	require.ErrorIs(t, err, domain.ErrGroupNameTaken)
	require.ErrorIs(t, err, apperror.ErrConflict)

	groups, err := h.svc.ListGroups(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupNamesSharingSlugCoexist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.createGroup(t, "alice", "C")
	cpp := h.createGroup(t, "alice", "C++")
	csharp := h.createGroup(t, "bob", "C#")
	assert.Equal(t, "c", c.Slug)
	assert.Equal(t, c.Slug, cpp.Slug)
	assert.Equal(t, c.Slug, csharp.Slug)

	h.createGroup(t, "alice", "Cafe")
	h.createGroup(t, "bob", "Caf\u00e9")

	// same name once composed and case folded
	_, err := h.svc.CreateGroup(ctx, "bob", domain.CreateGroupRequest{Name: "CAFE\u0301"})
	require.ErrorIs(t, err, domain.ErrGroupNameTaken)
	_, err = h.svc.CreateGroup(ctx, "bob", domain.CreateGroupRequest{Name: " c++ "})
	require.ErrorIs(t, err, domain.ErrGroupNameTaken)

	renamed := "C--"
	updated, err := h.svc.UpdateGroup(ctx, "alice", cpp.ID, domain.UpdateGroupRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "c", updated.Slug)
}

func TestSearchGroups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	chess := h.createGroup(t, "alice", "Chess Club")
	h.clock.Advance(time.Second)
	h.createGroup(t, "bob", "Go Players")
	h.clock.Advance(time.Second)
	speed := h.createGroup(t, "carol", "Speed CHESS")
	h.clock.Advance(time.Second)
	percent := h.createGroup(t, "dave", "100% Fun")

	res, err := h.svc.SearchGroups(ctx, "dave", "  chess ", pagination.Pagination{PageSize: 1})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, speed.ID, res.Groups[0].ID)
	assert.True(t, res.PageInfo.HasMore)

	res, err = h.svc.SearchGroups(ctx, "dave", "chess", pagination.Pagination{PageSize: 1, PageToken: res.PageInfo.NextPageToken})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, chess.ID, res.Groups[0].ID)
	assert.False(t, res.PageInfo.HasMore)

	// wildcards in the query are literal
	res, err = h.svc.SearchGroups(ctx, "alice", "%", pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, percent.ID, res.Groups[0].ID)

	res, err = h.svc.SearchGroups(ctx, "alice", "g_", pagination.Pagination{})
	require.NoError(t, err)
	assert.NotNil(t, res.Groups)
	assert.Empty(t, res.Groups)

	_, err = h.svc.SearchGroups(ctx, "alice", "   ", pagination.Pagination{})
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetAndListGroups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.createGroup(t, "alice", "First")
	second := h.createGroup(t, "bob", "Second")
	_, err := h.svc.AddMember(ctx, "bob", second.ID, "alice")
	require.NoError(t, err)

	got, err := h.svc.GetGroup(ctx, "carol", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)

	_, err = h.svc.GetGroup(ctx, "carol", snowflake.ID(99))
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	groups, err := h.svc.ListGroups(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, first.ID, groups[0].ID)
	assert.Equal(t, authorization.RoleAdmin, groups[0].Role)
	assert.Equal(t, second.ID, groups[1].ID)
	assert.Equal(t, authorization.RoleMember, groups[1].Role)
}

func TestUpdateGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	group := h.createGroup(t, "alice", "Old Name")
	h.createGroup(t, "alice", "Taken")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	name := "New Name"
	updated, err := h.svc.UpdateGroup(ctx, "alice", group.ID, domain.UpdateGroupRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "new-name", updated.Slug)

	_, err = h.svc.UpdateGroup(ctx, "bob", group.ID, domain.UpdateGroupRequest{Name: &name})
	require.ErrorIs(t, err, authorization.ErrForbidden)

	taken := "taken"
	_, err = h.svc.UpdateGroup(ctx, "alice", group.ID, domain.UpdateGroupRequest{Name: &taken})
	require.ErrorIs(t, err, domain.ErrGroupNameTaken)

	got, err := h.svc.GetGroup(ctx, "alice", group.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
}

func TestAddMemberRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")

	_, err := h.svc.AddMember(ctx, "carol", group.ID, "bob")
	require.ErrorIs(t, err, authorization.ErrNotMember)

	_, err = h.svc.AddMember(ctx, "alice", group.ID, "ghost")
	require.ErrorIs(t, err, userdomain.ErrUserNotFound)

	_, err = h.svc.AddMember(ctx, "alice", snowflake.ID(12345), "bob")
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	member, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, authorization.RoleMember, member.Role)

	_, err = h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.ErrorIs(t, err, domain.ErrAlreadyMember)

	_, err = h.svc.AddMember(ctx, "bob", group.ID, "carol")
	require.ErrorIs(t, err, authorization.ErrForbidden)
	require.ErrorIs(t, err, apperror.ErrPermission)
}

func TestAddMemberRevokesPendingInvitation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")

	invitation, err := h.svc.Invite(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	_, err = h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	pending, err := h.svc.ListInvitations(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = h.svc.AcceptInvite(ctx, "bob", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrNotPending)
}

func TestInviteAndAccept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	_, err = h.svc.Invite(ctx, "carol", group.ID, "dave")
	require.ErrorIs(t, err, authorization.ErrNotMember)

	_, err = h.svc.Invite(ctx, "bob", group.ID, "ghost")
	require.ErrorIs(t, err, userdomain.ErrUserNotFound)

	_, err = h.svc.Invite(ctx, "bob", group.ID, "alice")
	require.ErrorIs(t, err, domain.ErrAlreadyMember)

	invitation, err := h.svc.Invite(ctx, "bob", group.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, invitationdomain.StatusPending, invitation.Status)
	assert.Equal(t, "bob", invitation.InviterID)

	_, err = h.svc.Invite(ctx, "alice", group.ID, "carol")
	require.ErrorIs(t, err, invitationdomain.ErrAlreadyInvited)

	pending, err := h.svc.ListInvitations(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = h.svc.AcceptInvite(ctx, "dave", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrNotInvitee)

	member, err := h.svc.AcceptInvite(ctx, "carol", invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, authorization.RoleMember, member.Role)
	assert.Equal(t, group.ID, member.GroupID)

	_, err = h.svc.AcceptInvite(ctx, "carol", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrNotPending)
	require.ErrorIs(t, err, apperror.ErrState)

	_, err = h.svc.AcceptInvite(ctx, "carol", snowflake.ID(777))
	require.ErrorIs(t, err, invitationdomain.ErrInvitationNotFound)

	assert.Equal(t, int64(1), h.countTopic(t, events.TopicInvitationAccepted))
}

func TestDeclineAndRevoke(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)
	_, err = h.svc.AddMember(ctx, "alice", group.ID, "dave")
	require.NoError(t, err)

	invitation, err := h.svc.Invite(ctx, "bob", group.ID, "carol")
	require.NoError(t, err)

	_, err = h.svc.DeclineInvite(ctx, "bob", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrNotInvitee)

	_, err = h.svc.RevokeInvite(ctx, "dave", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrCannotRevoke)

	declined, err := h.svc.DeclineInvite(ctx, "carol", invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, invitationdomain.StatusDeclined, declined.Status)
	require.NotNil(t, declined.ResolvedAt)

	_, err = h.svc.RevokeInvite(ctx, "bob", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrNotPending)

	// the inviter may revoke
	second, err := h.svc.Invite(ctx, "bob", group.ID, "carol")
	require.NoError(t, err)
	revoked, err := h.svc.RevokeInvite(ctx, "bob", second.ID)
	require.NoError(t, err)
	assert.Equal(t, invitationdomain.StatusRevoked, revoked.Status)

	// and so may any admin
	third, err := h.svc.Invite(ctx, "bob", group.ID, "carol")
	require.NoError(t, err)
	_, err = h.svc.RevokeInvite(ctx, "alice", third.ID)
	require.NoError(t, err)

	_, err = h.svc.AcceptInvite(ctx, "carol", third.ID)
	require.ErrorIs(t, err, invitationdomain.ErrNotPending)
}

func TestRevokeInviteRequiresCurrentMembership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	invitation, err := h.svc.Invite(ctx, "bob", group.ID, "carol")
	require.NoError(t, err)

	require.NoError(t, h.svc.RemoveMember(ctx, "bob", group.ID, "bob", domain.RemoveMemberOptions{}))

	_, err = h.svc.RevokeInvite(ctx, "bob", invitation.ID)
	require.ErrorIs(t, err, invitationdomain.ErrCannotRevoke)
	require.ErrorIs(t, err, apperror.ErrPermission)

	// the invitation stays pending for the admins to handle
	pending, err := h.svc.ListInvitations(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	revoked, err := h.svc.RevokeInvite(ctx, "alice", invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, invitationdomain.StatusRevoked, revoked.Status)
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	for _, id := range []string{"bob", "carol"} {
		_, err := h.svc.AddMember(ctx, "alice", group.ID, id)
		require.NoError(t, err)
	}

	err := h.svc.RemoveMember(ctx, "bob", group.ID, "carol", domain.RemoveMemberOptions{})
	require.ErrorIs(t, err, authorization.ErrForbidden)

	// self leave
	require.NoError(t, h.svc.RemoveMember(ctx, "bob", group.ID, "bob", domain.RemoveMemberOptions{}))
	membership, err := h.svc.MembershipOf(ctx, group.ID, "bob")
	require.NoError(t, err)
	assert.Nil(t, membership)

	require.NoError(t, h.svc.RemoveMember(ctx, "alice", group.ID, "carol", domain.RemoveMemberOptions{}))

	err = h.svc.RemoveMember(ctx, "alice", group.ID, "carol", domain.RemoveMemberOptions{})
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	assert.Equal(t, int64(2), h.countTopic(t, events.TopicMemberRemoved))
}

func TestLastAdminProtection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	err = h.svc.RemoveMember(ctx, "alice", group.ID, "alice", domain.RemoveMemberOptions{})
	require.ErrorIs(t, err, domain.ErrLastAdmin)
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = h.svc.SetRole(ctx, "alice", group.ID, "alice", authorization.RoleMember)
	require.ErrorIs(t, err, domain.ErrLastAdmin)

	// with a second admin the first may step down
	_, err = h.svc.SetRole(ctx, "alice", group.ID, "bob", authorization.RoleAdmin)
	require.NoError(t, err)
	demoted, err := h.svc.SetRole(ctx, "bob", group.ID, "alice", authorization.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, authorization.RoleMember, demoted.Role)

	err = h.svc.RemoveMember(ctx, "bob", group.ID, "bob", domain.RemoveMemberOptions{})
	require.ErrorIs(t, err, domain.ErrLastAdmin)
}

func TestRemoveSoleAdminWithPromotion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	err = h.svc.RemoveMember(ctx, "alice", group.ID, "alice", domain.RemoveMemberOptions{PromoteUserID: "carol"})
	require.ErrorIs(t, err, domain.ErrInvalidPromotion)

	err = h.svc.RemoveMember(ctx, "alice", group.ID, "alice", domain.RemoveMemberOptions{PromoteUserID: "alice"})
	require.ErrorIs(t, err, domain.ErrInvalidPromotion)

	err = h.svc.RemoveMember(ctx, "bob", group.ID, "bob", domain.RemoveMemberOptions{PromoteUserID: "alice"})
	require.ErrorIs(t, err, authorization.ErrForbidden)

	require.NoError(t, h.svc.RemoveMember(ctx, "alice", group.ID, "alice", domain.RemoveMemberOptions{PromoteUserID: "bob"}))

	members, err := h.svc.ListMembers(ctx, "bob", group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].UserID)
	assert.Equal(t, authorization.RoleAdmin, members[0].Role)
}

func TestSetRoleValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	_, err = h.svc.SetRole(ctx, "alice", group.ID, "bob", "owner")
	require.ErrorIs(t, err, authorization.ErrInvalidRole)

	_, err = h.svc.SetRole(ctx, "alice", group.ID, "carol", authorization.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	_, err = h.svc.SetRole(ctx, "bob", group.ID, "bob", authorization.RoleAdmin)
	require.ErrorIs(t, err, authorization.ErrForbidden)

	same, err := h.svc.SetRole(ctx, "alice", group.ID, "bob", authorization.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, authorization.RoleMember, same.Role)
	assert.Equal(t, int64(0), h.countTopic(t, events.TopicMemberRoleChanged))
}

func TestDeleteGroupCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	other := h.createGroup(t, "alice", "Other")
	_, err := h.svc.AddMember(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)
	_, err = h.svc.Invite(ctx, "alice", group.ID, "carol")
	require.NoError(t, err)

	for i, gid := range []snowflake.ID{group.ID, other.ID} {
		postID := snowflake.ID(1000 + i)
		require.NoError(t, h.conn.Create(&grouppostdomain.GroupPost{
			ID:        postID,
			GroupID:   gid,
			AuthorID:  "alice",
			Content:   "hello",
			CreatedAt: h.clock.Now(),
		}).Error)
		require.NoError(t, h.conn.Create(&grouppostdomain.Like{PostID: postID, UserID: "alice", CreatedAt: h.clock.Now()}).Error)
		require.NoError(t, h.conn.Create(&grouppostdomain.Reply{
			ID:        snowflake.ID(2000 + i),
			PostID:    postID,
			AuthorID:  "alice",
			Content:   "reply",
			CreatedAt: h.clock.Now(),
		}).Error)
	}

	err = h.svc.DeleteGroup(ctx, "bob", group.ID)
	require.ErrorIs(t, err, authorization.ErrForbidden)

	require.NoError(t, h.svc.DeleteGroup(ctx, "alice", group.ID))

	_, err = h.svc.GetGroup(ctx, "alice", group.ID)
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	count := func(model any) int64 {
		var n int64
		require.NoError(t, h.conn.Model(model).Where("group_id = ?", group.ID).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&domain.Membership{}))
	assert.Zero(t, count(&invitationdomain.Invitation{}))
	assert.Zero(t, count(&grouppostdomain.GroupPost{}))

	var remaining int64
	require.NoError(t, h.conn.Model(&grouppostdomain.GroupPost{}).Where("group_id = ?", other.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	countPost := func(model any, postID snowflake.ID) int64 {
		var n int64
		require.NoError(t, h.conn.Model(model).Where("post_id = ?", postID).Count(&n).Error)
		return n
	}
	assert.Zero(t, countPost(&grouppostdomain.Like{}, 1000))
	assert.Zero(t, countPost(&grouppostdomain.Reply{}, 1000))
	assert.Equal(t, int64(1), countPost(&grouppostdomain.Like{}, 1001))
	assert.Equal(t, int64(1), countPost(&grouppostdomain.Reply{}, 1001))

	err = h.svc.DeleteGroup(ctx, "alice", group.ID)
	require.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestConcurrentAcceptInvite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")
	invitation, err := h.svc.Invite(ctx, "alice", group.ID, "bob")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.AcceptInvite(ctx, "bob", invitation.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, invitationdomain.ErrNotPending)
	}
	assert.Equal(t, 1, successes)

	var memberships int64
	require.NoError(t, h.conn.Model(&domain.Membership{}).
		Where("group_id = ? AND user_id = ?", group.ID, "bob").
		Count(&memberships).Error)
	assert.Equal(t, int64(1), memberships)
}

func TestConcurrentAddMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	group := h.createGroup(t, "alice", "Club")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.AddMember(ctx, "alice", group.ID, "bob")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, apperror.ErrConflict)
	}
	assert.Equal(t, 1, successes)
}
