package product

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aexfood/orders/internal/domain/category"
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	// Category is nil for uncategorized products.
	Category *category.Category
}

// Repository defines persistence operations for the product catalog.
// GetByID returns an apperr.NotFoundError of kind Product when absent.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	// Create stores p and sets its ID.
	Create(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
