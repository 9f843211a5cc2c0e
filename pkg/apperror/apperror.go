// Package apperror defines the failure kinds shared by every domain package.
//
// Domain packages declare sentinel errors with a kind, for example
//
//	var ErrInvalidName = apperror.Validation("invalid_name")
//
// Callers match either the sentinel itself or the whole kind:
//
//	errors.Is(err, groupdomain.ErrInvalidName)
//	errors.Is(err, apperror.ErrValidation)
package apperror

import "errors"

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindState      Kind = "state"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
)

// Error is a domain failure with a stable machine readable code.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// Is reports a match against the kind sentinels so errors.Is(err, ErrConflict)
// holds for every conflict error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// Kind sentinels. They carry no code and match every error of their kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrPermission = &Error{Kind: KindPermission}
	ErrState      = &Error{Kind: KindState}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

func Validation(code string) *Error { return &Error{Kind: KindValidation, Code: code} }
func Permission(code string) *Error { return &Error{Kind: KindPermission, Code: code} }
func State(code string) *Error      { return &Error{Kind: KindState, Code: code} }
func Conflict(code string) *Error   { return &Error{Kind: KindConflict, Code: code} }
func NotFound(code string) *Error   { return &Error{Kind: KindNotFound, Code: code} }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind, true
	}
	return "", false
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ""
}
