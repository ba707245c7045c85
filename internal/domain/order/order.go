package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aexfood/orders/internal/domain/outbox"
)

// StatusPending is the status of a newly created order.
const StatusPending = "PENDENTE"

// Order is a client's purchase with its line items.
type Order struct {
	ID        int64
	ClientID  int64
	Status    string
	Total     decimal.Decimal
	CreatedAt time.Time
	Items     []Item
}

// Item is one order line. UnitPrice is the price charged at creation time and
// does not follow later catalog changes.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Summary is an order header without its items.
type Summary struct {
	ID        int64
	Status    string
	Total     decimal.Decimal
	CreatedAt time.Time
	ItemCount int
}

// Selection is a requested product with quantity and discount.
type Selection struct {
	ProductID          int64
	Quantity           int
	DiscountPercentage int
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	ClientID int64
	Items    []Selection
}

// Composed is the confirmation returned for a created order: the assigned
// identity plus an echo of the selection.
type Composed struct {
	OrderID   int64
	ClientID  int64
	Status    string
	Total     decimal.Decimal
	CreatedAt time.Time
	Items     []Selection
}

// Gateway starts units of work for order creation.
type Gateway interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is a single transaction. Nothing written through it is visible
// to other readers until Commit succeeds. Rollback after Commit is a no-op.
type UnitOfWork interface {
	// SaveOrder writes the order header and returns its generated id.
	SaveOrder(ctx context.Context, o *Order) (int64, error)
	SaveItems(ctx context.Context, orderID int64, items []Item) error
	SaveEvent(ctx context.Context, e outbox.Event) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository reads and deletes stored orders. Missing orders are reported
// as apperr.NotFoundError of kind Order.
type Repository interface {
	Get(ctx context.Context, id int64) (*Order, error)
	// Delete removes the order and its items.
	Delete(ctx context.Context, id int64) error
	// ListByClient returns the client's orders, newest first.
	ListByClient(ctx context.Context, clientID int64) ([]Summary, error)
}
