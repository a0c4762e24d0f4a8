package repository

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/database"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a slice of a result set. Number starts at 1.
type Page struct {
	Number  int
	Size    int
	OrderBy string
	Desc    bool
}

// ParsePage reads page, pageSize, sortBy and order from the query string.
// sortBy is only honored when it appears in sortable.
func ParsePage(r *http.Request, sortable ...string) Page {
	q := r.URL.Query()
	p := Page{
		Number: intOrDefault(q.Get("page"), 1),
		Size:   clamp(intOrDefault(q.Get("pageSize"), DefaultPageSize), 1, MaxPageSize),
		Desc:   strings.EqualFold(q.Get("order"), "desc"),
	}
	if sortBy := q.Get("sortBy"); sortBy != "" {
		for _, f := range sortable {
			if f == sortBy {
				p.OrderBy = sortBy
				break
			}
		}
	}
	return p
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	p.Size = clamp(p.Size, 1, MaxPageSize)
	return p
}

// Pagination describes the page returned in a Paged result.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paged is one page of entities.
type Paged[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// GetPage returns the entities matching predicate within page. A zero
// Predicate matches everything.
func (r *GormRepository[T]) GetPage(ctx context.Context, predicate Predicate, page Page) (*Paged[T], error) {
	page = page.normalize()

	var (
		total int64
		data  []T
	)
	err := r.db.Retry(ctx, func(tx *gorm.DB) error {
		var model T
		q := predicate.apply(tx.Model(&model))
		if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return err
		}
		if page.OrderBy != "" {
			q = q.Order(orderClause(page))
		}
		data = data[:0]
		return q.Offset((page.Number - 1) * page.Size).Limit(page.Size).Find(&data).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, r.resource)
	}

	totalPages := (int(total) + page.Size - 1) / page.Size
	if totalPages < 1 {
		totalPages = 1
	}
	return &Paged[T]{
		Data: data,
		Pagination: Pagination{
			Page: page.Number, PageSize: page.Size,
			Total: int(total), TotalPages: totalPages,
		},
	}, nil
}

func orderClause(p Page) string {
	if p.Desc {
		return p.OrderBy + " DESC"
	}
	return p.OrderBy
}

func intOrDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func clamp(v, lower, upper int) int {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
