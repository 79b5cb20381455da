// Package option provides composable query modifiers for gorm lookups.
package option

import (
	"strings"

	"github.com/resailhq/resail/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm query before execution.
type QueryOption func(*gorm.DB) *gorm.DB

// QuerySortBy restricts sortable columns to an allow-list.
type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

// WithSortBy orders results by an allowed column, newest first by default.
func WithSortBy(sort QuerySortBy) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" {
			field = "created_at"
		}
		if sort.Allow != nil && !sort.Allow[field] {
			field = "created_at"
		}
		direction := "ASC"
		if sort.Desc || field == "created_at" {
			direction = "DESC"
		}
		return tx.Order(field + " " + direction)
	}
}

// ApplyPagination applies cursor pagination, over-fetching one row so the
// caller can detect a following page.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 50
		}
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor.CreatedAt != "" {
				tx = tx.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
			}
		}
		return tx.Limit(size + 1)
	}
}

// WithWhere appends a raw predicate with arguments.
func WithWhere(query string, args ...any) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}
