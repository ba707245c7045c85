package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/client"
)

var _ client.Repository = (*ClientRepository)(nil)

// ClientRepository implements client.Repository backed by PostgreSQL.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a ClientRepository that uses the given pool.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func scanClient(row pgx.CollectableRow) (client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone)
	return c, err
}

func (r *ClientRepository) getOne(ctx context.Context, op string, key any, sql string) (*client.Client, error) {
	rows, err := r.pool.Query(ctx, sql, key)
	if err != nil {
		return nil, storageErr(op, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanClient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KindClient, key)
		}
		return nil, storageErr(op, err)
	}
	return &c, nil
}

// GetByID returns a client by id.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*client.Client, error) {
	return r.getOne(ctx, "get client", id, `SELECT id, name, phone FROM clients WHERE id = $1`)
}

// GetByPhone returns a client by phone number.
func (r *ClientRepository) GetByPhone(ctx context.Context, phone string) (*client.Client, error) {
	return r.getOne(ctx, "get client by phone", phone, `SELECT id, name, phone FROM clients WHERE phone = $1`)
}

// Create inserts c and sets its generated id.
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (name, phone) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Phone,
	).Scan(&c.ID)
	return storageErr("create client", err)
}

// Upsert inserts c or, when the phone is already registered, updates the
// stored name. It reports whether a new row was created.
func (r *ClientRepository) Upsert(ctx context.Context, c *client.Client) (bool, error) {
	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, phone) VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, (xmax = 0)`,
		c.Name, c.Phone,
	).Scan(&c.ID, &inserted)
	if err != nil {
		return false, storageErr("upsert client", err)
	}
	return inserted, nil
}

// Update overwrites the name and phone of an existing client.
func (r *ClientRepository) Update(ctx context.Context, c *client.Client) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET name = $2, phone = $3 WHERE id = $1`,
		c.ID, c.Name, c.Phone,
	)
	if err != nil {
		return storageErr("update client", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.KindClient, c.ID)
	}
	return nil
}

// Delete removes a client. A client referenced by orders is rejected by the
// foreign key and reported as an integrity error.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete client", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.KindClient, id)
	}
	return nil
}
