// Package repository provides a typed gorm store shared by domain services.
package repository

import (
	"context"
	"errors"

	"github.com/resailhq/resail/pkg/db/option"
	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record_not_found")

// Repository is the persistence contract services depend on. Filters are
// zero-value structs of the entity type; only non-zero fields participate.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error)
	Update(ctx context.Context, record *T) error
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore constructs a Repository backed by the shared gorm handle.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error) {
	tx := s.db.WithContext(ctx)
	if filter != nil {
		tx = tx.Where(filter)
	}
	for _, opt := range opts {
		tx = opt(tx)
	}
	var records []*T
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store[T]) FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error) {
	tx := s.db.WithContext(ctx)
	if filter != nil {
		tx = tx.Where(filter)
	}
	for _, opt := range opts {
		tx = opt(tx)
	}
	var record T
	err := tx.First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) Update(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Save(record).Error
}
