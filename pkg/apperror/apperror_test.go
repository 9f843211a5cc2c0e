package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelAndKind(t *testing.T) {
	errLastAdmin := Conflict("last_admin")
	wrapped := fmt.Errorf("remove member: %w", errLastAdmin)

	assert.True(t, errors.Is(wrapped, errLastAdmin))
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, Conflict("last_admin")), "distinct sentinels must not match")
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("wrap: %w", NotFound("group_not_found")))
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)

	_, ok = KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "invalid_name", CodeOf(Validation("invalid_name")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}
