// internal/application/usecase/blend_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	blenddom "steepery/internal/domain/blend"
	ingdom "steepery/internal/domain/ingredient"
	proddom "steepery/internal/domain/product"
)

// BlendUsecase materializes custom blend compositions into ordinary catalog
// products. Materialization is idempotent: equal compositions, whatever the
// submission order of add-ins, resolve to one product row, and a blend's
// price is fixed at first materialization.
type BlendUsecase struct {
	ingredients ingdom.Repository
	products    proddom.Repository
	clock       Clock
}

func NewBlendUsecase(ingredients ingdom.Repository, products proddom.Repository) *BlendUsecase {
	return NewBlendUsecaseWithClock(ingredients, products, nil)
}

// NewBlendUsecaseWithClock is useful for tests.
func NewBlendUsecaseWithClock(ingredients ingdom.Repository, products proddom.Repository, clock Clock) *BlendUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &BlendUsecase{ingredients: ingredients, products: products, clock: clock}
}

// Materialize resolves the composition to its backing catalog product,
// creating it on first sight. name, when non-empty, overrides the synthesized
// display name on first materialization only; reuse keeps the original row
// untouched.
func (u *BlendUsecase) Materialize(ctx context.Context, baseTeaID string, addIns []blenddom.AddIn, name string) (proddom.Product, error) {
	comp, err := blenddom.NewComposition(baseTeaID, addIns)
	if err != nil {
		return proddom.Product{}, err
	}
	key := comp.Key()

	// Reuse before anything else: price and name are fixed at first
	// materialization so equal blends cost the same for every shopper.
	if p, err := u.products.FindByBlendKey(ctx, key); err == nil {
		return u.reuse(p, key)
	} else if !errors.Is(err, proddom.ErrNotFound) {
		return proddom.Product{}, err
	}

	base, err := u.ingredients.GetByID(ctx, comp.BaseTeaID)
	if err != nil {
		if errors.Is(err, ingdom.ErrNotFound) {
			return proddom.Product{}, fmt.Errorf("%w: %s", ingdom.ErrNotFound, comp.BaseTeaID)
		}
		return proddom.Product{}, err
	}
	if base.Kind != ingdom.KindBase {
		return proddom.Product{}, fmt.Errorf("%w: %s is not a base tea", blenddom.ErrNoBase, comp.BaseTeaID)
	}
	if !base.IsActive {
		return proddom.Product{}, fmt.Errorf("%w: %s", blenddom.ErrIngredientInactive, comp.BaseTeaID)
	}

	addInRows := map[string]ingdom.Ingredient{}
	if len(comp.AddIns) > 0 {
		ids := make([]string, 0, len(comp.AddIns))
		for _, a := range comp.AddIns {
			ids = append(ids, a.IngredientID)
		}
		addInRows, err = u.ingredients.ListByIDs(ctx, ids)
		if err != nil {
			return proddom.Product{}, err
		}
		for _, a := range comp.AddIns {
			ing, ok := addInRows[a.IngredientID]
			if !ok {
				return proddom.Product{}, fmt.Errorf("%w: %s", ingdom.ErrNotFound, a.IngredientID)
			}
			if !ing.IsActive {
				return proddom.Product{}, fmt.Errorf("%w: %s", blenddom.ErrIngredientInactive, ing.ID)
			}
		}
	}

	priceCents, err := comp.PriceCents(base, addInRows)
	if err != nil {
		return proddom.Product{}, err
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = comp.DisplayName(base.Name)
	}

	p, err := proddom.New(
		uuid.NewString(),
		displayName,
		"",
		proddom.CategoryCustomBlend,
		[]string{"custom", "blend", key},
		priceCents,
		blenddom.BlendStockSentinel,
		true,
		&key,
		u.clock.Now(),
	)
	if err != nil {
		return proddom.Product{}, err
	}

	if err := u.products.Create(ctx, p); err != nil {
		if errors.Is(err, proddom.ErrDuplicateBlendKey) {
			// Another request holds the key: either a concurrent
			// materialization won the insert, or the row predates us and the
			// earlier lookup raced with it. Its row is the blend either way.
			log.Printf("[blend_uc] duplicate blend key, reselecting key=%s", key)
			existing, err := u.products.FindByBlendKey(ctx, key)
			if err != nil {
				return proddom.Product{}, err
			}
			return u.reuse(existing, key)
		}
		return proddom.Product{}, fmt.Errorf("blend: failed to create product: %w", err)
	}

	log.Printf("[blend_uc] materialized blend product=%s key=%s price_cents=%d", p.ID, key, priceCents)
	return p, nil
}

// reuse hands back the composition's existing product. A deactivated blend
// keeps the key bound to its row (invariant: one composition, one product id)
// but cannot be ordered, which is a domain refusal rather than a not-found.
func (u *BlendUsecase) reuse(p proddom.Product, key string) (proddom.Product, error) {
	if !p.IsActive {
		return proddom.Product{}, fmt.Errorf("%w: %s", blenddom.ErrUnavailable, key)
	}
	return p, nil
}
