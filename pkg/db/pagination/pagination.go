// Package pagination implements opaque cursor pagination for list endpoints.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Pagination carries the page inputs bound from a list request.
type Pagination struct {
	PageToken string `form:"page_token" json:"page_token"`
	PageSize  int    `form:"page_size" json:"page_size"`
}

// Cursor identifies the last record of a page.
type Cursor struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// PageInfo describes whether more records exist beyond the current page.
type PageInfo struct {
	HasMore       bool   `json:"has_more"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

var ErrInvalidCursor = errors.New("invalid_cursor")

// EncodeCursor serializes a cursor into an opaque page token.
func EncodeCursor(cursor Cursor) (string, error) {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses an opaque page token back into a cursor.
func DecodeCursor(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, ErrInvalidCursor
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return cursor, nil
}

// BuildCursorPageInfo derives page info from an over-fetched result set.
// Callers fetch pageSize+1 rows; the extra row signals another page.
func BuildCursorPageInfo[T any](items []*T, pageSize int32, token func(*T) string) *PageInfo {
	if pageSize <= 0 || len(items) == 0 {
		return &PageInfo{}
	}
	if len(items) <= int(pageSize) {
		return &PageInfo{}
	}
	last := items[pageSize-1]
	info := &PageInfo{HasMore: true}
	if last != nil && token != nil {
		info.NextPageToken = token(last)
	}
	return info
}
