package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/content"
	"github.com/smallbiznis/chirp/internal/events"
	"github.com/smallbiznis/chirp/internal/migration"
	"github.com/smallbiznis/chirp/internal/observability/metrics"
	"github.com/smallbiznis/chirp/internal/status/domain"
	"github.com/smallbiznis/chirp/internal/status/repository"
	userdomain "github.com/smallbiznis/chirp/internal/user/domain"
	userrepo "github.com/smallbiznis/chirp/internal/user/repository"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	users := userrepo.NewRepository(conn)
	for _, id := range []string{"alice", "bob"} {
		require.NoError(t, users.Upsert(context.Background(), userdomain.User{ID: id, CreatedAt: clk.Now(), UpdatedAt: clk.Now()}))
	}

	svc := NewService(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      repository.NewRepository(conn),
		UserRepo:  users,
		Publisher: events.NewOutboxPublisher(conn, node, clk),
		Policy:    content.NewPolicy(),
		Limits:    config.NewStaticLimits(config.DefaultLimits()),
		Metrics:   metrics.NewNoop(),
	})
	return svc, conn, clk
}

func TestCreateAndListStatuses(t *testing.T) {
	svc, conn, clk := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateStatus(ctx, "alice", "morning")
	require.NoError(t, err)
	clk.Advance(time.Minute)
	second, err := svc.CreateStatus(ctx, "alice", " 2 < 3 at noon ")
	require.NoError(t, err)
	assert.Equal(t, "2 < 3 at noon", second.Content)

	_, err = svc.CreateStatus(ctx, "alice", strings.Repeat("s", 281))
	require.ErrorIs(t, err, content.ErrTooLong)

	res, err := svc.ListStatuses(ctx, "alice", "alice", pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, res.Statuses, 2)
	assert.Equal(t, second.ID, res.Statuses[0].ID)
	assert.Equal(t, first.ID, res.Statuses[1].ID)

	empty, err := svc.ListStatuses(ctx, "alice", "bob", pagination.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, empty.Statuses)

	_, err = svc.ListStatuses(ctx, "alice", "ghost", pagination.Pagination{})
	require.ErrorIs(t, err, userdomain.ErrUserNotFound)

	var published int64
	require.NoError(t, conn.Model(&events.OutboxEvent{}).Where("topic = ?", events.TopicStatusCreated).Count(&published).Error)
	assert.Equal(t, int64(2), published)
}

func TestDeleteStatusAuthorOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	status, err := svc.CreateStatus(ctx, "alice", "hello")
	require.NoError(t, err)

	err = svc.DeleteStatus(ctx, "bob", status.ID)
	require.ErrorIs(t, err, domain.ErrNotAuthor)

	require.NoError(t, svc.DeleteStatus(ctx, "alice", status.ID))

	err = svc.DeleteStatus(ctx, "alice", status.ID)
	require.ErrorIs(t, err, domain.ErrStatusNotFound)
}

func TestLikeStatusIsIdempotent(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	status, err := svc.CreateStatus(ctx, "alice", "like me")
	require.NoError(t, err)

	res, err := svc.LikeStatus(ctx, "bob", status.ID)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, int64(1), res.LikeCount)

	res, err = svc.LikeStatus(ctx, "bob", status.ID)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, int64(1), res.LikeCount)

	res, err = svc.LikeStatus(ctx, "alice", status.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LikeCount)

	asBob, err := svc.ListStatuses(ctx, "bob", "alice", pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, asBob.Statuses, 1)
	assert.Equal(t, int64(2), asBob.Statuses[0].LikeCount)
	assert.True(t, asBob.Statuses[0].Liked)

	require.NoError(t, svc.UnlikeStatus(ctx, "bob", status.ID))
	err = svc.UnlikeStatus(ctx, "bob", status.ID)
	require.ErrorIs(t, err, domain.ErrLikeNotFound)

	asBob, err = svc.ListStatuses(ctx, "bob", "alice", pagination.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), asBob.Statuses[0].LikeCount)
	assert.False(t, asBob.Statuses[0].Liked)

	_, err = svc.LikeStatus(ctx, "bob", snowflake.ID(77))
	require.ErrorIs(t, err, domain.ErrStatusNotFound)

	var liked int64
	require.NoError(t, conn.Model(&events.OutboxEvent{}).Where("topic = ?", events.TopicStatusLiked).Count(&liked).Error)
	assert.Equal(t, int64(2), liked)
}

func TestStatusReplies(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	status, err := svc.CreateStatus(ctx, "alice", "thoughts?")
	require.NoError(t, err)

	var replies []*domain.Reply
	for _, text := range []string{"first", "second", "third"} {
		reply, err := svc.Reply(ctx, "bob", status.ID, text)
		require.NoError(t, err)
		replies = append(replies, reply)
		clk.Advance(time.Second)
	}

	_, err = svc.Reply(ctx, "bob", status.ID, "   ")
	require.ErrorIs(t, err, content.ErrEmpty)
	_, err = svc.Reply(ctx, "bob", snowflake.ID(5), "hi")
	require.ErrorIs(t, err, domain.ErrStatusNotFound)

	page, err := svc.ListReplies(ctx, "carol", status.ID, pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Replies, 2)
	assert.Equal(t, "first", page.Replies[0].Content)
	assert.Equal(t, "second", page.Replies[1].Content)
	assert.True(t, page.PageInfo.HasMore)

	next, err := svc.ListReplies(ctx, "carol", status.ID, pagination.Pagination{PageSize: 2, PageToken: page.PageInfo.NextPageToken})
	require.NoError(t, err)
	require.Len(t, next.Replies, 1)
	assert.Equal(t, "third", next.Replies[0].Content)

	listed, err := svc.ListStatuses(ctx, "alice", "alice", pagination.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), listed.Statuses[0].ReplyCount)

	// the status author may remove any reply, others only their own
	err = svc.DeleteReply(ctx, "carol", replies[0].ID)
	require.ErrorIs(t, err, domain.ErrNotAuthor)
	require.NoError(t, svc.DeleteReply(ctx, "alice", replies[0].ID))
	require.NoError(t, svc.DeleteReply(ctx, "bob", replies[1].ID))
	err = svc.DeleteReply(ctx, "bob", replies[1].ID)
	require.ErrorIs(t, err, domain.ErrReplyNotFound)

	listed, err = svc.ListStatuses(ctx, "alice", "alice", pagination.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), listed.Statuses[0].ReplyCount)
}

func TestDeleteStatusRemovesReactions(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	status, err := svc.CreateStatus(ctx, "alice", "short lived")
	require.NoError(t, err)
	_, err = svc.LikeStatus(ctx, "bob", status.ID)
	require.NoError(t, err)
	_, err = svc.Reply(ctx, "bob", status.ID, "bye")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStatus(ctx, "alice", status.ID))

	var likes, replies int64
	require.NoError(t, conn.Model(&domain.Like{}).Count(&likes).Error)
	require.NoError(t, conn.Model(&domain.Reply{}).Count(&replies).Error)
	assert.Zero(t, likes)
	assert.Zero(t, replies)
}
