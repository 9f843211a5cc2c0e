package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	directmessagedomain "github.com/smallbiznis/chirp/internal/directmessage/domain"
	"github.com/smallbiznis/chirp/internal/events"
	groupdomain "github.com/smallbiznis/chirp/internal/group/domain"
	grouppostdomain "github.com/smallbiznis/chirp/internal/grouppost/domain"
	invitationdomain "github.com/smallbiznis/chirp/internal/invitation/domain"
	statusdomain "github.com/smallbiznis/chirp/internal/status/domain"
	userdomain "github.com/smallbiznis/chirp/internal/user/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const pendingInvitationIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_invitations_pending
	ON invitations (group_id, invitee_id) WHERE status = 'pending'`

// Models lists every table owned by the service.
func Models() []any {
	return []any{
		&userdomain.User{},
		&groupdomain.Group{},
		&groupdomain.Membership{},
		&invitationdomain.Invitation{},
		&grouppostdomain.GroupPost{},
		&grouppostdomain.Like{},
		&grouppostdomain.Reply{},
		&directmessagedomain.DirectMessage{},
		&statusdomain.Status{},
		&statusdomain.Like{},
		&statusdomain.Reply{},
		&events.OutboxEvent{},
	}
}

// Migrate brings the schema up to date for the configured dialect. Postgres
// runs the embedded SQL migrations; other dialects use gorm AutoMigrate.
func Migrate(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if dbType == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return AutoMigrate(conn)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the models. MySQL has no partial
// indexes, so there the pending invitation guard is transactional only.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if conn.Dialector.Name() == "mysql" {
		return nil
	}
	if err := conn.Exec(pendingInvitationIndex).Error; err != nil {
		return fmt.Errorf("create pending invitation index: %w", err)
	}
	return nil
}
