// internal/domain/order/repository_port.go
package order

import "context"

// Repository is the persistence port for Order.
//
// Create runs inside the checkout transaction bound to ctx. There is no
// update method: orders are immutable to this engine.
type Repository interface {
	// Create persists the order and all its items.
	Create(ctx context.Context, o *Order) error

	// GetByID returns the order with items, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)

	// ListByUserID returns the user's orders, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*Order, error)
}
