package pagination

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/pkg/apperror"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

var ErrInvalidPageToken = apperror.Validation("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps PageSize into [1, MaxPageSize].
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrInvalidPageToken
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, ErrInvalidPageToken
	}

	return &cursor, nil
}

// NewCursor builds the cursor for a row ordered by (created_at, id).
func NewCursor(id snowflake.ID, createdAt time.Time) Cursor {
	return Cursor{
		ID:        id.String(),
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	}
}

// ApplyNewestFirst orders the query by creation time descending and, when a
// page token is given, continues strictly after the cursor row.
func ApplyNewestFirst(q *gorm.DB, p Pagination, table string) (*gorm.DB, error) {
	return apply(q, p, table, "DESC", "<")
}

// ApplyOldestFirst is the ascending counterpart, used for reply threads.
func ApplyOldestFirst(q *gorm.DB, p Pagination, table string) (*gorm.DB, error) {
	return apply(q, p, table, "ASC", ">")
}

func apply(q *gorm.DB, p Pagination, table, direction, cmp string) (*gorm.DB, error) {
	q = q.Order(table + ".created_at " + direction).Order(table + ".id " + direction).Limit(p.Limit() + 1)
	if p.PageToken == "" {
		return q, nil
	}

	cursor, err := DecodeCursor(p.PageToken)
	if err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return nil, ErrInvalidPageToken
	}
	createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	if err != nil {
		return nil, ErrInvalidPageToken
	}

	return q.Where(
		"("+table+".created_at "+cmp+" ? OR ("+table+".created_at = ? AND "+table+".id "+cmp+" ?))",
		createdAt, createdAt, id,
	), nil
}

// BuildCursorPageInfo trims the look-ahead row fetched by ApplyNewestFirst or
// ApplyOldestFirst.
func BuildCursorPageInfo[T any](data []T, limit int, extractCursor func(T) Cursor) ([]T, PageInfo) {
	if len(data) == 0 {
		return data, PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > limit {
		hasMore = true
		data = data[:limit]
	}

	pageInfo := PageInfo{HasMore: hasMore}
	if hasMore {
		token, err := EncodeCursor(extractCursor(data[len(data)-1]))
		if err == nil {
			pageInfo.NextPageToken = token
		}
	}

	return data, pageInfo
}
