package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/order"
	"github.com/aexfood/orders/internal/domain/outbox"
)

var (
	_ order.Gateway    = (*OrderRepository)(nil)
	_ order.Repository = (*OrderRepository)(nil)
	_ order.UnitOfWork = (*unitOfWork)(nil)
)

// OrderRepository implements order.Gateway and order.Repository backed by
// PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Begin starts a transaction for one order creation.
func (r *OrderRepository) Begin(ctx context.Context) (order.UnitOfWork, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) SaveOrder(ctx context.Context, o *order.Order) (int64, error) {
	var id int64
	err := u.tx.QueryRow(ctx,
		`INSERT INTO orders (client_id, status, total, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		o.ClientID, o.Status, o.Total, o.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("insert order", err)
	}
	return id, nil
}

// SaveItems inserts all items in a single batch round trip.
func (u *unitOfWork) SaveItems(ctx context.Context, orderID int64, items []order.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			orderID, it.ProductID, it.Quantity, it.UnitPrice,
		)
	}

	br := u.tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return storageErr("insert order items", err)
		}
	}
	return storageErr("insert order items", br.Close())
}

func (u *unitOfWork) SaveEvent(ctx context.Context, e outbox.Event) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)`,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, e.Payload, string(outbox.StatusPending), e.CreatedAt,
	)
	return storageErr("insert outbox event", err)
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	return storageErr("commit", u.tx.Commit(ctx))
}

// Rollback aborts the transaction; it is a no-op once the transaction has
// been committed or rolled back.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return storageErr("rollback", err)
	}
	return nil
}

// Get returns an order with its items.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	o := order.Order{ID: id}
	err := r.pool.QueryRow(ctx,
		`SELECT client_id, status, total, created_at FROM orders WHERE id = $1`, id,
	).Scan(&o.ClientID, &o.Status, &o.Total, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KindOrder, id)
		}
		return nil, storageErr("get order", err)
	}

	items, err := listItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func listItems(ctx context.Context, q querier, orderID int64) ([]order.Item, error) {
	rows, err := q.Query(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, storageErr("list order items", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice)
		return it, err
	})
	if err != nil {
		return nil, storageErr("list order items", err)
	}
	return items, nil
}

// Delete removes an order; its items are removed by the cascading foreign key.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete order", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.KindOrder, id)
	}
	return nil
}

// ListByClient returns order headers of a client, newest first.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID int64) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.status, o.total, o.created_at, COUNT(i.id)
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE o.client_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC`,
		clientID,
	)
	if err != nil {
		return nil, storageErr("list client orders", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Summary, error) {
		var s order.Summary
		err := row.Scan(&s.ID, &s.Status, &s.Total, &s.CreatedAt, &s.ItemCount)
		return s, err
	})
	if err != nil {
		return nil, storageErr("list client orders", err)
	}
	return list, nil
}
