package metrics

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"gorm.io/gorm"
)

const (
	ErrorTypeDeadlineExceeded = "deadline_exceeded"
	ErrorTypeCanceled         = "canceled"
	ErrorTypeDB               = "db"
	ErrorTypeUnknown          = "unknown"
)

const (
	ReasonUniqueViolation      = "unique_violation"
	ReasonSerializationFailure = "serialization_failure"
	ReasonLockTimeout          = "db_lock_timeout"
	ReasonRecordNotFound       = "record_not_found"
)

// ClassifyError maps an error to a low-cardinality (type, reason) pair.
// Domain errors report their kind and code.
func ClassifyError(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if kind, ok := apperror.KindOf(err); ok {
		return string(kind), apperror.CodeOf(err)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeDeadlineExceeded, ""
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled, ""
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrorTypeDB, ReasonUniqueViolation
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorTypeDB, ReasonRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrorTypeDB, ReasonUniqueViolation
		case "40001":
			return ErrorTypeDB, ReasonSerializationFailure
		case "55P03":
			return ErrorTypeDB, ReasonLockTimeout
		}
		return ErrorTypeDB, pgErr.Code
	}
	return ErrorTypeUnknown, ""
}
