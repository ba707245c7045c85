package client

import (
	"context"
)

// Client is a registered customer identified by phone number.
type Client struct {
	ID    int64
	Name  string
	Phone string
}

// Repository defines persistence operations for clients. Lookups of a
// missing client return an apperr.NotFoundError of kind Client.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Client, error)
	GetByPhone(ctx context.Context, phone string) (*Client, error)
	// Create stores c and sets its ID.
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id int64) error
}
