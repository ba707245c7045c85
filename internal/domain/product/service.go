package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/category"
	"github.com/aexfood/orders/internal/domain/pricing"
)

// CreateRequest holds the input for adding a product to the catalog.
type CreateRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	// Category is a category name; empty means uncategorized.
	Category string
}

// Service manages the product catalog.
type Service struct {
	products   Repository
	categories category.Repository
}

// NewService creates a product Service.
func NewService(products Repository, categories category.Repository) *Service {
	return &Service{
		products:   products,
		categories: categories,
	}
}

// List returns every product; an empty catalog yields an empty slice.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	if ps == nil {
		ps = []Product{}
	}
	return ps, nil
}

// Get returns the product with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	return p, nil
}

// Create validates req, resolves its category and stores the product.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	var inv apperr.InvalidArgumentError
	name := strings.TrimSpace(req.Name)
	if name == "" {
		inv.Add("name", "must not be blank")
	}
	if req.Price.IsNegative() {
		inv.Add("price", "must not be negative")
	} else if !pricing.WithinLimit(req.Price) {
		inv.Add("price", "must be at most "+pricing.MaxAmount.StringFixed(pricing.Scale))
	} else if !req.Price.Equal(req.Price.Round(pricing.Scale)) {
		inv.Add("price", "must have at most 2 decimal places")
	}
	if err := inv.OrNil(); err != nil {
		return nil, err
	}

	p := &Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price.Round(pricing.Scale),
	}
	if req.Category != "" {
		n, err := category.Parse(req.Category)
		if err != nil {
			return nil, err
		}
		c, err := s.categories.GetByName(ctx, n)
		if err != nil {
			return nil, errors.Wrap(err, "get category")
		}
		p.Category = c
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Delete removes a product. Products referenced by order items cannot be
// deleted; the store reports that as an integrity error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete product")
	}
	return nil
}
