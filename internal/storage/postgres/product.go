package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/category"
	"github.com/aexfood/orders/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

const selectProducts = `
	SELECT p.id, p.name, p.description, p.price, c.id, c.name
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p       product.Product
		catID   *int64
		catName *string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &catID, &catName); err != nil {
		return p, err
	}
	if catID != nil && catName != nil {
		p.Category = &category.Category{ID: *catID, Name: category.Name(*catName)}
	}
	return p, nil
}

// List returns all products ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+` ORDER BY p.id`)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, storageErr("get product", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KindProduct, id)
		}
		return nil, storageErr("get product", err)
	}
	return &p, nil
}

// Create inserts p and sets its generated id.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	var catID *int64
	if p.Category != nil {
		catID = &p.Category.ID
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price, category_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Name, p.Description, p.Price, catID,
	).Scan(&p.ID)
	return storageErr("create product", err)
}

// Delete removes a product. Products referenced by order items are rejected
// by the foreign key and reported as an integrity error.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.KindProduct, id)
	}
	return nil
}
