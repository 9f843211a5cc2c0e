package pagination

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)
	token, err := EncodeCursor(NewCursor(snowflake.ID(42), at))
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, at.Format(time.RFC3339Nano), cursor.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestBuildCursorPageInfo(t *testing.T) {
	items := []int{5, 4, 3}
	page, info := BuildCursorPageInfo(items, 2, func(v int) Cursor {
		return NewCursor(snowflake.ID(v), time.Unix(int64(v), 0))
	})
	assert.Equal(t, []int{5, 4}, page)
	assert.True(t, info.HasMore)
	assert.NotEmpty(t, info.NextPageToken)

	page, info = BuildCursorPageInfo(items, 3, func(v int) Cursor { return Cursor{} })
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
