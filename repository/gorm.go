package repository

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/database"
	apperrors "github.com/kbukum/ecommerce-shared/errors"
)

// Executor runs a database operation, retrying transient failures.
// *database.DB implements it.
type Executor interface {
	Retry(ctx context.Context, op func(tx *gorm.DB) error) error
}

// GormRepository implements Repository on top of GORM. Services embed it
// and add entity-specific queries.
type GormRepository[T any] struct {
	db       Executor
	resource string
}

var _ Repository[struct{}] = (*GormRepository[struct{}])(nil)

// NewGorm creates a repository for T. resource names the entity in
// messages and errors.
func NewGorm[T any](db Executor, resource string) *GormRepository[T] {
	return &GormRepository[T]{db: db, resource: resource}
}

// Create inserts entity.
func (r *GormRepository[T]) Create(ctx context.Context, entity *T) (Response, error) {
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		return Response{Message: fmt.Sprintf("Failed to create %s", r.resource)}, database.FromDatabase(err, r.resource)
	}
	return Response{Flag: true, Message: fmt.Sprintf("%s created successfully", r.resource)}, nil
}

// Update saves all fields of entity.
func (r *GormRepository[T]) Update(ctx context.Context, entity *T) (Response, error) {
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		return tx.Save(entity).Error
	})
	if err != nil {
		return Response{Message: fmt.Sprintf("Failed to update %s", r.resource)}, database.FromDatabase(err, r.resource)
	}
	return Response{Flag: true, Message: fmt.Sprintf("%s updated successfully", r.resource)}, nil
}

// Delete removes entity by its primary key. Deleting a missing entity
// yields a Response with Flag false and no error.
func (r *GormRepository[T]) Delete(ctx context.Context, entity *T) (Response, error) {
	var affected int64
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(entity)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return Response{Message: fmt.Sprintf("Failed to delete %s", r.resource)}, database.FromDatabase(err, r.resource)
	}
	if affected == 0 {
		return Response{Message: fmt.Sprintf("%s not found", r.resource)}, nil
	}
	return Response{Flag: true, Message: fmt.Sprintf("%s deleted successfully", r.resource)}, nil
}

// GetAll returns every entity.
func (r *GormRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	var entities []T
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		entities = entities[:0]
		return tx.Find(&entities).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, r.resource)
	}
	return entities, nil
}

// GetByID returns the entity with the given primary key, or a NOT_FOUND
// AppError.
func (r *GormRepository[T]) GetByID(ctx context.Context, id int) (*T, error) {
	var entity T
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		return tx.First(&entity, id).Error
	})
	if database.IsNotFoundError(err) {
		return nil, apperrors.NotFound(r.resource, strconv.Itoa(id)).WithCause(err)
	}
	if err != nil {
		return nil, database.FromDatabase(err, r.resource)
	}
	return &entity, nil
}

// GetBy returns the first entity matching predicate, or a NOT_FOUND AppError.
func (r *GormRepository[T]) GetBy(ctx context.Context, predicate Predicate) (*T, error) {
	var entity T
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		return predicate.apply(tx).First(&entity).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, r.resource)
	}
	return &entity, nil
}
