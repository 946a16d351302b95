// Package store persists orders. Every mutation carries the version the
// caller read; a mismatch means someone else won the race and the caller
// must re-read and re-evaluate.
package store

import (
	"context"
	"errors"

	"github.com/Arjun-745/TrendKart/models"
)

var (
	// ErrNotFound means no order matches the given id or carrier reference.
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the order changed since it was read; the write was
	// not applied.
	ErrConflict = errors.New("order version conflict")
)

// Store is the order system of record.
type Store interface {
	// Create persists a new order. The store assigns the id if empty.
	Create(ctx context.Context, order *models.Order) error
	// Get loads an order by id.
	Get(ctx context.Context, id string) (*models.Order, error)
	// GetForUser loads an order by id scoped to its owner.
	GetForUser(ctx context.Context, id, userID string) (*models.Order, error)
	// FindByCarrierRef resolves a carrier order id or AWB code to an order.
	FindByCarrierRef(ctx context.Context, ref string) (*models.Order, error)
	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	// List returns all orders page by page, newest first.
	List(ctx context.Context, offset, limit int) ([]models.Order, int64, error)
	// Update writes the order's mutable fields if its stored version still
	// equals expectedVersion, bumping the version; otherwise ErrConflict.
	Update(ctx context.Context, order *models.Order, expectedVersion int64) error
}
