// internal/domain/cart/repository_port.go
package cart

import (
	"context"

	"steepery/internal/domain/identity"
)

// Repository is the persistence port for Cart and its lines.
//
// Mutating methods are expected to run inside a transaction bound to ctx
// (adapters/out/db/common); the usecase layer owns transaction boundaries.
type Repository interface {
	// GetByOwner returns the owner's cart with all lines, or ErrNotFound.
	GetByOwner(ctx context.Context, owner identity.Identity) (*Cart, error)

	// Create persists an empty cart. A concurrent create for the same owner
	// surfaces as a unique violation; callers catch it and refetch.
	Create(ctx context.Context, c *Cart) error

	// Delete removes the cart row; lines cascade.
	Delete(ctx context.Context, cartID string) error

	// Lock acquires FOR UPDATE row locks on the given carts, in sorted id
	// order, for the remainder of the enclosing transaction.
	Lock(ctx context.Context, cartIDs ...string) error

	// AddItemQuantity adds qty onto the (cartID, productID) line, creating it
	// when absent, and returns the resulting combined quantity.
	AddItemQuantity(ctx context.Context, cartID, productID string, qty int, blendKey *string) (int, error)

	// SetItemQuantity replaces the line's quantity. Returns ErrItemNotFound
	// when no such line exists.
	SetItemQuantity(ctx context.Context, cartID, productID string, qty int) error

	// RemoveItem deletes the line; deleting an absent line is not an error.
	RemoveItem(ctx context.Context, cartID, productID string) error

	// ClearItems deletes all lines; the cart row persists.
	ClearItems(ctx context.Context, cartID string) error

	// ReassignItem moves a line to another cart, preserving the row (and its
	// blend back-reference). The caller guarantees the target cart has no
	// line for the same product.
	ReassignItem(ctx context.Context, fromCartID, toCartID, productID string) error
}
