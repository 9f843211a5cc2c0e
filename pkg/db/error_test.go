package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "ux_group_members"`), true},
		{"mysql", errors.New("Error 1062: Duplicate entry"), true},
		{"sqlite", errors.New("UNIQUE constraint failed: group_members.group_id, group_members.user_id"), true},
		{"pgconn unique", fmt.Errorf("create membership: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgconn other", &pgconn.PgError{Code: "40001"}, false},
		{"other", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}

func TestNewTestIsolatesDatabases(t *testing.T) {
	type probe struct {
		ID   int64
		Name string
	}

	first, err := NewTest()
	assert.NoError(t, err)
	second, err := NewTest()
	assert.NoError(t, err)

	assert.NoError(t, first.AutoMigrate(&probe{}))
	assert.NoError(t, first.Create(&probe{ID: 1, Name: "a"}).Error)

	assert.True(t, first.Migrator().HasTable(&probe{}))
	assert.False(t, second.Migrator().HasTable(&probe{}))
}
