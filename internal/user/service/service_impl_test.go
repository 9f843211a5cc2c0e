package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/user/domain"
	"github.com/smallbiznis/chirp/internal/user/repository"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}))

	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewService(Params{Repo: repository.NewRepository(conn), Clock: clk, Log: zap.NewNop()}), clk
}

func TestTouchCreatesAndRefreshes(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.Touch(ctx, "alice", "Alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", created.Username)

	clk.Advance(time.Hour)
	updated, err := svc.Touch(ctx, "alice", "")
	require.NoError(t, err)
	require.Equal(t, "Alice", updated.Username)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	renamed, err := svc.Touch(ctx, "alice", "alice2")
	require.NoError(t, err)
	require.Equal(t, "alice2", renamed.Username)
}

func TestGetAndExists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	ok, err := svc.Exists(ctx, "ghost")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Touch(ctx, "bob", "")
	require.NoError(t, err)
	ok, err = svc.Exists(ctx, "bob")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInvalidUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Touch(context.Background(), "   ", "x")
	require.ErrorIs(t, err, domain.ErrInvalidUser)
}
