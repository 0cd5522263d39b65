// internal/domain/blend/composition.go
package blend

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"steepery/internal/domain/ingredient"
)

var (
	ErrNoBase             = errors.New("blend: base tea is required")
	ErrInvalidAddIn       = errors.New("blend: invalid add-in")
	ErrIngredientInactive = errors.New("blend: ingredient is not active")

	// ErrUnavailable means the composition's product exists but was
	// deactivated; the composition stays bound to that row, it just cannot be
	// ordered until the row is reactivated.
	ErrUnavailable = errors.New("blend: blend is no longer available")
)

// BlendStockSentinel is the stock assigned to materialized blend products.
// Blends are made to order; composition alone never makes them out of stock.
const BlendStockSentinel = 1_000_000

// AddIn is one requested add-in with its quantity in ounces.
type AddIn struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

// Composition is the logical identity of a blend: one base tea plus a
// multiset of add-ins. It is never stored as its own row; the key lands on
// the materialized product.
type Composition struct {
	BaseTeaID string
	AddIns    []AddIn
}

// NewComposition validates and canonicalizes: add-ins sorted by ingredient id,
// duplicate ids merged by summing quantities.
func NewComposition(baseTeaID string, addIns []AddIn) (Composition, error) {
	base := strings.TrimSpace(baseTeaID)
	if base == "" {
		return Composition{}, ErrNoBase
	}

	merged := map[string]float64{}
	for _, a := range addIns {
		id := strings.TrimSpace(a.IngredientID)
		if id == "" || a.Quantity <= 0 {
			return Composition{}, ErrInvalidAddIn
		}
		merged[id] += a.Quantity
	}

	out := make([]AddIn, 0, len(merged))
	for id, q := range merged {
		out = append(out, AddIn{IngredientID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })

	return Composition{BaseTeaID: base, AddIns: out}, nil
}

// Key renders the canonical, submission-order-independent composition key:
//
//	blend:{baseTeaId}:{ingredientId}:{quantity},...
func (c Composition) Key() string {
	parts := make([]string, 0, len(c.AddIns))
	for _, a := range c.AddIns {
		parts = append(parts, a.IngredientID+":"+strconv.FormatFloat(a.Quantity, 'f', -1, 64))
	}
	if len(parts) == 0 {
		return "blend:" + c.BaseTeaID
	}
	return "blend:" + c.BaseTeaID + ":" + strings.Join(parts, ",")
}

// IngredientIDs returns the base id followed by the sorted add-in ids.
func (c Composition) IngredientIDs() []string {
	ids := make([]string, 0, len(c.AddIns)+1)
	ids = append(ids, c.BaseTeaID)
	for _, a := range c.AddIns {
		ids = append(ids, a.IngredientID)
	}
	return ids
}

// PriceCents computes the fixed first-materialization price:
//
//	base price + Σ (add-in base price + incrementCount × increment price)
//
// where incrementCount floors the quantity beyond the add-in's base amount.
// Flooring never charges for a partial increment the customer did not get.
func (c Composition) PriceCents(base ingredient.Ingredient, addIns map[string]ingredient.Ingredient) (int64, error) {
	total := base.BasePriceCents
	for _, a := range c.AddIns {
		ing, ok := addIns[a.IngredientID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ingredient.ErrNotFound, a.IngredientID)
		}
		total += ing.BasePriceCents + int64(incrementCount(a.Quantity, ing))*ing.IncrementPriceCents
	}
	return total, nil
}

func incrementCount(qty float64, ing ingredient.Ingredient) int {
	if ing.IncrementAmount <= 0 {
		return 0
	}
	extra := qty - ing.BaseAmount
	if extra <= 0 {
		return 0
	}
	// Nudge before flooring so exact multiples (0.25/0.25 = 1) survive binary
	// float representation.
	return int(math.Floor(extra/ing.IncrementAmount + 1e-9))
}

// DisplayName synthesizes the catalog name for a materialized blend.
func (c Composition) DisplayName(baseName string) string {
	name := "Custom " + strings.TrimSpace(baseName) + " Blend"
	if n := len(c.AddIns); n == 1 {
		name += " (+1 add-in)"
	} else if n > 1 {
		name += fmt.Sprintf(" (+%d add-ins)", n)
	}
	return name
}
