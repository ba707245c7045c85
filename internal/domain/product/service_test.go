package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/category"
)

// --- Mock implementations ---

type mockProductRepo struct {
	created []*Product
	list    []Product
	err     error
}

func (m *mockProductRepo) List(_ context.Context) ([]Product, error) {
	return m.list, m.err
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*Product, error) {
	for i := range m.list {
		if m.list[i].ID == id {
			return &m.list[i], nil
		}
	}
	return nil, apperr.NotFound(apperr.KindProduct, id)
}

func (m *mockProductRepo) Create(_ context.Context, p *Product) error {
	if m.err != nil {
		return m.err
	}
	p.ID = int64(len(m.created) + 1)
	m.created = append(m.created, p)
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id int64) error {
	_, err := m.GetByID(context.Background(), id)
	return err
}

type mockCategoryRepo struct{}

func (mockCategoryRepo) GetByName(_ context.Context, name category.Name) (*category.Category, error) {
	for i, n := range category.All() {
		if n == name {
			return &category.Category{ID: int64(i + 1), Name: n}, nil
		}
	}
	return nil, apperr.NotFound(apperr.KindCategory, name)
}

// --- Tests ---

func TestService_Create(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo, mockCategoryRepo{})

	p, err := svc.Create(context.Background(), CreateRequest{
		Name:        "X-Burger",
		Description: "pão, carne e queijo",
		Price:       decimal.RequireFromString("20.00"),
		Category:    "lanche",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	require.NotNil(t, p.Category)
	assert.Equal(t, category.Lanche, p.Category.Name)
	assert.Equal(t, int64(1), p.Category.ID)

	p, err = svc.Create(context.Background(), CreateRequest{
		Name:  "Água",
		Price: decimal.RequireFromString("3.5"),
	})
	require.NoError(t, err)
	assert.Nil(t, p.Category)

	p, err = svc.Create(context.Background(), CreateRequest{
		Name:  "Caviar",
		Price: decimal.RequireFromString("9999999999.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "9999999999.99", p.Price.StringFixed(2))
}

func TestService_CreateRejects(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "negative price",
			req:  CreateRequest{Name: "A", Price: decimal.RequireFromString("-1")},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsInvalidArgument(err))
			},
		},
		{
			name: "sub-cent price",
			req:  CreateRequest{Name: "A", Price: decimal.RequireFromString("1.005")},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsInvalidArgument(err))
			},
		},
		{
			name: "price beyond storable range",
			req:  CreateRequest{Name: "A", Price: decimal.RequireFromString("10000000000.00")},
			check: func(t *testing.T, err error) {
				var inv *apperr.InvalidArgumentError
				require.ErrorAs(t, err, &inv)
				require.Len(t, inv.Fields, 1)
				assert.Equal(t, "price", inv.Fields[0].Field)
				assert.Equal(t, "must be at most 9999999999.99", inv.Fields[0].Reason)
			},
		},
		{
			name: "blank name",
			req:  CreateRequest{Name: "  ", Price: decimal.NewFromInt(1)},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsInvalidArgument(err))
			},
		},
		{
			name: "unknown category",
			req:  CreateRequest{Name: "A", Price: decimal.NewFromInt(1), Category: "PIZZA"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperr.IsNotFound(err, apperr.KindCategory))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProductRepo{}
			_, err := NewService(repo, mockCategoryRepo{}).Create(context.Background(), tt.req)
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, repo.created)
		})
	}
}

func TestService_List(t *testing.T) {
	svc := NewService(&mockProductRepo{}, mockCategoryRepo{})
	ps, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ps)
	assert.Empty(t, ps)

	dbErr := errors.New("connection refused")
	_, err = NewService(&mockProductRepo{err: dbErr}, mockCategoryRepo{}).List(context.Background())
	assert.ErrorIs(t, err, dbErr)
}

func TestService_GetAndDelete(t *testing.T) {
	repo := &mockProductRepo{list: []Product{{ID: 4, Name: "Batata", Price: decimal.NewFromInt(9)}}}
	svc := NewService(repo, mockCategoryRepo{})

	p, err := svc.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Batata", p.Name)

	_, err = svc.Get(context.Background(), 5)
	assert.True(t, apperr.IsNotFound(err, apperr.KindProduct))

	require.NoError(t, svc.Delete(context.Background(), 4))
	assert.True(t, apperr.IsNotFound(svc.Delete(context.Background(), 5), apperr.KindProduct))
}
