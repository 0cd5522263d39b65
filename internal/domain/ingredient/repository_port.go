// internal/domain/ingredient/repository_port.go
package ingredient

import "context"

// Repository is the read-only persistence port for Ingredient.
// This engine never writes reference data.
type Repository interface {
	// GetByID returns the ingredient or ErrNotFound.
	GetByID(ctx context.Context, id string) (Ingredient, error)

	// ListByIDs returns the ingredients for ids, keyed by id. Missing ids are
	// simply absent from the map; the caller decides whether that is an error.
	ListByIDs(ctx context.Context, ids []string) (map[string]Ingredient, error)
}
