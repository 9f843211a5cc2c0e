package migration

import (
	"testing"
	"time"

	groupdomain "github.com/smallbiznis/chirp/internal/group/domain"
	invitationdomain "github.com/smallbiznis/chirp/internal/invitation/domain"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(conn))

	for _, table := range []string{
		"users", "social_groups", "memberships", "invitations",
		"group_posts", "group_post_likes", "group_post_replies",
		"direct_messages", "statuses", "status_likes", "status_replies", "outbox_events",
	} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}

	// idempotent
	require.NoError(t, AutoMigrate(conn))
}

func TestGroupNameKeyIsUnique(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(conn))

	now := time.Now().UTC()
	require.NoError(t, conn.Create(&groupdomain.Group{ID: 1, Name: "C", NameKey: "c", Slug: "c", CreatorID: "a", CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, conn.Create(&groupdomain.Group{ID: 2, Name: "C++", NameKey: "c++", Slug: "c", CreatorID: "a", CreatedAt: now, UpdatedAt: now}).Error)

	err = conn.Create(&groupdomain.Group{ID: 3, Name: "c", NameKey: "c", Slug: "c", CreatorID: "b", CreatedAt: now, UpdatedAt: now}).Error
	require.Error(t, err)
	require.True(t, db.IsDuplicateKeyErr(err))
}

func TestPendingInvitationIndex(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(conn))

	now := time.Now().UTC()
	first := invitationdomain.Invitation{ID: 1, GroupID: 10, InviterID: "a", InviteeID: "b", Status: invitationdomain.StatusPending, CreatedAt: now}
	require.NoError(t, conn.Create(&first).Error)

	dup := invitationdomain.Invitation{ID: 2, GroupID: 10, InviterID: "c", InviteeID: "b", Status: invitationdomain.StatusPending, CreatedAt: now}
	err = conn.Create(&dup).Error
	require.Error(t, err)
	require.True(t, db.IsDuplicateKeyErr(err))

	// resolved invitations do not block a new pending one
	require.NoError(t, conn.Model(&invitationdomain.Invitation{}).Where("id = ?", 1).Update("status", invitationdomain.StatusDeclined).Error)
	require.NoError(t, conn.Create(&dup).Error)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)
	require.Len(t, entries, 4)
}
