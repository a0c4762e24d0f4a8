// Package repository defines the data-access contract implemented by every
// service entity store, together with a GORM-backed default implementation.
//
//	type ProductRepository struct {
//		*repository.GormRepository[Product]
//	}
//
//	repo := repository.NewGorm[Product](db, "product")
//	p, err := repo.GetBy(ctx, repository.Where("name = ?", "Laptop"))
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Response reports the outcome of a write operation.
type Response struct {
	Flag    bool   `json:"flag"`
	Message string `json:"message"`
}

// Predicate is a filter condition in GORM Where form.
type Predicate struct {
	Query interface{}
	Args  []interface{}
}

// Where builds a Predicate, e.g. Where("price > ?", 10) or
// Where(&Product{Name: "Laptop"}).
func Where(query interface{}, args ...interface{}) Predicate {
	return Predicate{Query: query, Args: args}
}

func (p Predicate) apply(tx *gorm.DB) *gorm.DB {
	if p.Query == nil {
		return tx
	}
	return tx.Where(p.Query, p.Args...)
}

// Repository is the CRUD contract for entities of type T.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) (Response, error)
	Update(ctx context.Context, entity *T) (Response, error)
	Delete(ctx context.Context, entity *T) (Response, error)
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int) (*T, error)
	GetBy(ctx context.Context, predicate Predicate) (*T, error)
}
