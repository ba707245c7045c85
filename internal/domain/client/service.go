package client

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/aexfood/orders/internal/domain/apperr"
)

// Field limits, in characters.
const (
	NameMinLen  = 3
	NameMaxLen  = 50
	PhoneMinLen = 8
	PhoneMaxLen = 11
)

// Patch holds the fields to change; nil fields are left untouched.
type Patch struct {
	Name  *string
	Phone *string
}

// Service manages the client directory.
type Service struct {
	clients Repository
}

// NewService creates a client Service.
func NewService(clients Repository) *Service {
	return &Service{clients: clients}
}

// Get returns the client with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get client")
	}
	return c, nil
}

// GetByPhone returns the client registered with phone.
func (s *Service) GetByPhone(ctx context.Context, phone string) (*Client, error) {
	c, err := s.clients.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, errors.Wrap(err, "get client by phone")
	}
	return c, nil
}

// Create registers a new client. A phone already in use fails with an
// integrity storage error.
func (s *Service) Create(ctx context.Context, name, phone string) (*Client, error) {
	c := &Client{
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create client")
	}
	return c, nil
}

// Patch applies p to the client with the given id.
func (s *Service) Patch(ctx context.Context, id int64, p Patch) (*Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get client")
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update client")
	}
	return c, nil
}

// Delete removes the client. Clients that still own orders cannot be
// deleted; the store reports that as an integrity error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete client")
	}
	return nil
}

// Validate checks the name and phone length limits of c.
func Validate(c *Client) error {
	var inv apperr.InvalidArgumentError
	if n := utf8.RuneCountInString(c.Name); n < NameMinLen || n > NameMaxLen {
		inv.Add("name", "must be between 3 and 50 characters")
	}
	if n := utf8.RuneCountInString(c.Phone); n < PhoneMinLen || n > PhoneMaxLen {
		inv.Add("phone", "must be between 8 and 11 characters")
	}
	return inv.OrNil()
}
