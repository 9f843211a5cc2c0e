package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantType   string
		wantReason string
	}{
		{name: "nil", err: nil},
		{name: "domain", err: fmt.Errorf("wrap: %w", apperror.Conflict("already_member")), wantType: "conflict", wantReason: "already_member"},
		{name: "deadline", err: context.DeadlineExceeded, wantType: ErrorTypeDeadlineExceeded},
		{name: "duplicated key", err: gorm.ErrDuplicatedKey, wantType: ErrorTypeDB, wantReason: ReasonUniqueViolation},
		{name: "pg serialization", err: &pgconn.PgError{Code: "40001"}, wantType: ErrorTypeDB, wantReason: ReasonSerializationFailure},
		{name: "pg lock", err: &pgconn.PgError{Code: "55P03"}, wantType: ErrorTypeDB, wantReason: ReasonLockTimeout},
		{name: "other", err: errors.New("boom"), wantType: ErrorTypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotReason := ClassifyError(tc.err)
			assert.Equal(t, tc.wantType, gotType)
			assert.Equal(t, tc.wantReason, gotReason)
		})
	}
}
