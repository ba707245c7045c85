package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/category"
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// GetByName returns the stored category row for name.
func (r *CategoryRepository) GetByName(ctx context.Context, name category.Name) (*category.Category, error) {
	c := category.Category{Name: name}
	err := r.pool.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, string(name)).Scan(&c.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KindCategory, name)
		}
		return nil, storageErr("get category", err)
	}
	return &c, nil
}
