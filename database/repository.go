package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// BaseRepository generic repository over one model type
type BaseRepository[T any] struct {
	db *gorm.DB
}

// NewBaseRepository creates a repository
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

// DB underlying connection
func (r *BaseRepository[T]) DB() *gorm.DB {
	return r.db
}

// Create inserts entity
func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// FindByID loads one record, returning ErrRecordNotFound when absent
func (r *BaseRepository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	result := r.db.WithContext(ctx).First(&entity, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("find record (id=%v): %w", id, result.Error)
	}
	return &entity, nil
}

// FindAll loads every record
func (r *BaseRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := r.db.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find all records: %w", err)
	}
	return entities, nil
}

// FindInBatches walks the table in primary-key batches
func (r *BaseRepository[T]) FindInBatches(ctx context.Context, batchSize int, fn func(batch []T) error) error {
	var entities []T
	result := r.db.WithContext(ctx).FindInBatches(&entities, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(entities)
	})
	if result.Error != nil {
		return fmt.Errorf("find records in batches: %w", result.Error)
	}
	return nil
}

// Update saves entity
func (r *BaseRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Delete removes the record with id
func (r *BaseRepository[T]) Delete(ctx context.Context, id interface{}) error {
	var entity T
	if err := r.db.WithContext(ctx).Delete(&entity, id).Error; err != nil {
		return fmt.Errorf("delete record (id=%v): %w", id, err)
	}
	return nil
}

// Count counts every record
func (r *BaseRepository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	var entity T
	if err := r.db.WithContext(ctx).Model(&entity).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Transaction runs fn in a transaction
func (r *BaseRepository[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
