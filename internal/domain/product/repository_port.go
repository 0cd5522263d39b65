// internal/domain/product/repository_port.go
package product

import "context"

// Filter narrows catalog listings.
type Filter struct {
	Category   string
	Tag        string
	ActiveOnly bool
}

// Repository is the persistence port for Product.
//
// Implementations route through the transaction bound to ctx when one is
// present (see adapters/out/db/common), so the ForUpdate and decrement calls
// compose into the checkout transaction.
type Repository interface {
	// GetByID returns the product or ErrNotFound.
	GetByID(ctx context.Context, id string) (Product, error)

	// List returns catalog products matching filter, name-ordered.
	List(ctx context.Context, filter Filter) ([]Product, error)

	// FindByBlendKey returns the product carrying the composition key,
	// active or not, or ErrNotFound. At most one row can carry a given key.
	FindByBlendKey(ctx context.Context, key string) (Product, error)

	// Create persists a new product. A blend_key collision surfaces as a
	// unique violation for the caller to catch and reselect.
	Create(ctx context.Context, p Product) error

	// GetForUpdate loads the given products with row locks held for the
	// remainder of the enclosing transaction. ids are locked in sorted order
	// so concurrent checkouts cannot deadlock on each other.
	GetForUpdate(ctx context.Context, ids []string) (map[string]Product, error)

	// DecrementStock subtracts qty from the product's stock. Callers must hold
	// the row lock and have validated qty against current stock.
	DecrementStock(ctx context.Context, id string, qty int) error
}
