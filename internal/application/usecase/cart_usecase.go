// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	cartdom "steepery/internal/domain/cart"
	"steepery/internal/domain/identity"
	proddom "steepery/internal/domain/product"
)

// CartLineView is one cart line joined with the product's current price and
// active state. The view is derived per request, never cached: a price change
// in the catalog shows up on the next GET.
type CartLineView struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	Quantity       int     `json:"quantity"`
	LineTotalCents int64   `json:"lineTotalCents"`
	IsActive       bool    `json:"isActive"`
	BlendKey       *string `json:"blendKey,omitempty"`
}

// CartSnapshot is the response shape for every cart operation.
type CartSnapshot struct {
	Cart          *cartdom.Cart  `json:"cart"`
	Lines         []CartLineView `json:"lines"`
	SubtotalCents int64          `json:"subtotalCents"`
	ItemCount     int            `json:"itemCount"`
}

// MergeAdjustment reports a quantity clamp during a guest→user merge: the
// combined quantity exceeded current stock so the excess was dropped. It is
// informational, not an error.
type MergeAdjustment struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Kept      int    `json:"kept"`
}

// MergeResult is the merged cart plus any stock clamps applied along the way.
type MergeResult struct {
	Snapshot    CartSnapshot      `json:"snapshot"`
	Adjustments []MergeAdjustment `json:"adjustments"`
}

// CartUsecase owns cart lifecycles for both owner regimes. Every mutation is
// one transaction: read-check-write against current product rows, so
// concurrent adds accumulate instead of losing updates.
type CartUsecase struct {
	carts    cartdom.Repository
	products proddom.Repository
	stock    *proddom.StockService
	tx       Transactor
	clock    Clock
}

func NewCartUsecase(carts cartdom.Repository, products proddom.Repository, tx Transactor) *CartUsecase {
	return NewCartUsecaseWithClock(carts, products, tx, nil)
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(carts cartdom.Repository, products proddom.Repository, tx Transactor, clock Clock) *CartUsecase {
	if tx == nil {
		tx = nopTransactor{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &CartUsecase{
		carts:    carts,
		products: products,
		stock:    proddom.NewStockService(),
		tx:       tx,
		clock:    clock,
	}
}

// GetOrCreate finds the owner's cart, creating an empty one when absent.
// Idempotent: a concurrent create for the same owner resolves through the
// uniqueness constraint and a refetch, never an error.
func (u *CartUsecase) GetOrCreate(ctx context.Context, owner identity.Identity) (*cartdom.Cart, error) {
	var c *cartdom.Cart
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = u.getOrCreate(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (u *CartUsecase) getOrCreate(ctx context.Context, owner identity.Identity) (*cartdom.Cart, error) {
	c, err := u.carts.GetByOwner(ctx, owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, cartdom.ErrNotFound) {
		return nil, err
	}

	c, err = cartdom.New(uuid.NewString(), owner, u.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := u.carts.Create(ctx, c); err != nil {
		if errors.Is(err, cartdom.ErrDuplicateOwner) {
			// Lost the create race; the other request's cart is ours too.
			return u.carts.GetByOwner(ctx, owner)
		}
		return nil, fmt.Errorf("cart: failed to create cart: %w", err)
	}
	return c, nil
}

// Get returns the owner's cart with derived subtotal and item count. A missing
// cart reads as an empty snapshot; nothing is created on a read.
func (u *CartUsecase) Get(ctx context.Context, owner identity.Identity) (CartSnapshot, error) {
	c, err := u.carts.GetByOwner(ctx, owner)
	if errors.Is(err, cartdom.ErrNotFound) {
		return CartSnapshot{Lines: []CartLineView{}}, nil
	}
	if err != nil {
		return CartSnapshot{}, err
	}
	return u.snapshot(ctx, c)
}

// AddItem adds quantity onto the owner's line for productID, creating cart and
// line as needed. An existing line accumulates; the combined quantity is
// re-validated against current stock before the write sticks.
func (u *CartUsecase) AddItem(ctx context.Context, owner identity.Identity, productID string, quantity int) (CartSnapshot, error) {
	if quantity < 1 {
		return CartSnapshot{}, cartdom.ErrInvalidQuantity
	}

	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return fmt.Errorf("%w: %s", cartdom.ErrInactiveProduct, p.ID)
		}

		c, err := u.getOrCreate(ctx, owner)
		if err != nil {
			return err
		}

		combined, err := u.carts.AddItemQuantity(ctx, c.ID, p.ID, quantity, p.BlendKey)
		if err != nil {
			return fmt.Errorf("cart: failed to add item: %w", err)
		}
		// Validate the accumulated quantity; failure rolls the add back.
		return u.stock.CheckAndReserve(p, combined, 0)
	})
	if err != nil {
		return CartSnapshot{}, err
	}
	return u.Get(ctx, owner)
}

// UpdateItem replaces (does not add to) the line's quantity.
func (u *CartUsecase) UpdateItem(ctx context.Context, owner identity.Identity, productID string, quantity int) (CartSnapshot, error) {
	if quantity < 1 {
		return CartSnapshot{}, cartdom.ErrInvalidQuantity
	}

	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := u.carts.GetByOwner(ctx, owner)
		if errors.Is(err, cartdom.ErrNotFound) {
			return cartdom.ErrItemNotFound
		}
		if err != nil {
			return err
		}
		if c.Item(productID) == nil {
			return cartdom.ErrItemNotFound
		}

		p, err := u.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			// Deactivated since it was added.
			return fmt.Errorf("%w: %s", cartdom.ErrInactiveProduct, p.ID)
		}
		if err := u.stock.CheckAndReserve(p, quantity, 0); err != nil {
			return err
		}
		return u.carts.SetItemQuantity(ctx, c.ID, p.ID, quantity)
	})
	if err != nil {
		return CartSnapshot{}, err
	}
	return u.Get(ctx, owner)
}

// RemoveItem deletes the line. Removing an absent line (or from an absent
// cart) succeeds: deletes are idempotent.
func (u *CartUsecase) RemoveItem(ctx context.Context, owner identity.Identity, productID string) (CartSnapshot, error) {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := u.carts.GetByOwner(ctx, owner)
		if errors.Is(err, cartdom.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return u.carts.RemoveItem(ctx, c.ID, strings.TrimSpace(productID))
	})
	if err != nil {
		return CartSnapshot{}, err
	}
	return u.Get(ctx, owner)
}

// Clear deletes every line; the cart row itself persists.
func (u *CartUsecase) Clear(ctx context.Context, owner identity.Identity) (CartSnapshot, error) {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := u.carts.GetByOwner(ctx, owner)
		if errors.Is(err, cartdom.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return u.carts.ClearItems(ctx, c.ID)
	})
	if err != nil {
		return CartSnapshot{}, err
	}
	return u.Get(ctx, owner)
}

// MergeGuestCart folds the guest cart identified by sessionID into the user's
// cart, all-or-nothing. Lines absent from the user cart move over wholesale
// (preserving their blend back-reference); colliding lines accumulate, clamped
// to current stock with the clamp reported back rather than silently dropped.
// The emptied guest cart row is deleted.
func (u *CartUsecase) MergeGuestCart(ctx context.Context, userID, sessionID string) (MergeResult, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return MergeResult{}, identity.ErrMissing
	}
	sid, err := identity.NormalizeSessionID(sessionID)
	if err != nil {
		return MergeResult{}, err
	}

	userOwner := identity.ForUser(uid)
	guestOwner := identity.ForGuest(sid)

	var adjustments []MergeAdjustment
	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		adjustments = nil

		guest, err := u.carts.GetByOwner(ctx, guestOwner)
		if errors.Is(err, cartdom.ErrNotFound) {
			_, err = u.getOrCreate(ctx, userOwner)
			return err
		}
		if err != nil {
			return err
		}

		user, err := u.getOrCreate(ctx, userOwner)
		if err != nil {
			return err
		}

		if guest.IsEmpty() {
			// Nothing to move; just drop the stale guest cart.
			return u.carts.Delete(ctx, guest.ID)
		}

		// Lock both carts (sorted inside Lock) so a concurrent merge or
		// mutation on either side serializes behind us.
		if err := u.carts.Lock(ctx, guest.ID, user.ID); err != nil {
			return err
		}
		// Re-read under the locks; pre-lock reads may be stale.
		guest, err = u.carts.GetByOwner(ctx, guestOwner)
		if err != nil {
			return err
		}
		user, err = u.carts.GetByOwner(ctx, userOwner)
		if err != nil {
			return err
		}

		for _, line := range guest.Items {
			existing := user.Item(line.ProductID)
			if existing == nil {
				if err := u.carts.ReassignItem(ctx, guest.ID, user.ID, line.ProductID); err != nil {
					return fmt.Errorf("cart: failed to move item %s: %w", line.ProductID, err)
				}
				continue
			}

			p, err := u.products.GetByID(ctx, line.ProductID)
			if errors.Is(err, proddom.ErrNotFound) {
				// The product left the catalog since both carts picked it up.
				// Drop the guest line and record it so the caller can tell
				// the user, instead of failing the whole merge.
				adjustments = append(adjustments, MergeAdjustment{
					ProductID: line.ProductID,
					Requested: existing.Quantity + line.Quantity,
					Kept:      existing.Quantity,
				})
				if err := u.carts.RemoveItem(ctx, guest.ID, line.ProductID); err != nil {
					return fmt.Errorf("cart: failed to drop merged item %s: %w", line.ProductID, err)
				}
				continue
			}
			if err != nil {
				return err
			}
			requested := existing.Quantity + line.Quantity
			add := line.Quantity
			if requested > p.Stock {
				// Clamp to available stock; never below what the user
				// already holds.
				add = p.Stock - existing.Quantity
				if add < 0 {
					add = 0
				}
				adjustments = append(adjustments, MergeAdjustment{
					ProductID: p.ID,
					Requested: requested,
					Kept:      existing.Quantity + add,
				})
			}
			if add > 0 {
				if _, err := u.carts.AddItemQuantity(ctx, user.ID, p.ID, add, line.BlendKey); err != nil {
					return fmt.Errorf("cart: failed to merge item %s: %w", p.ID, err)
				}
			}
			if err := u.carts.RemoveItem(ctx, guest.ID, line.ProductID); err != nil {
				return fmt.Errorf("cart: failed to drop merged item %s: %w", line.ProductID, err)
			}
		}

		return u.carts.Delete(ctx, guest.ID)
	})
	if err != nil {
		return MergeResult{}, err
	}

	if len(adjustments) > 0 {
		log.Printf("[cart_uc] merge clamped %d line(s) for user=%s", len(adjustments), uid)
	}

	snap, err := u.Get(ctx, userOwner)
	if err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Snapshot: snap, Adjustments: adjustments}, nil
}

// snapshot joins cart lines with current product rows. Subtotal counts active
// products only; item count counts every line.
func (u *CartUsecase) snapshot(ctx context.Context, c *cartdom.Cart) (CartSnapshot, error) {
	snap := CartSnapshot{
		Cart:  c,
		Lines: make([]CartLineView, 0, len(c.Items)),
	}

	lines := append([]cartdom.CartItem(nil), c.Items...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	for _, it := range lines {
		snap.ItemCount += it.Quantity

		p, err := u.products.GetByID(ctx, it.ProductID)
		if errors.Is(err, proddom.ErrNotFound) {
			snap.Lines = append(snap.Lines, CartLineView{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				BlendKey:  it.BlendKey,
			})
			continue
		}
		if err != nil {
			return CartSnapshot{}, err
		}

		view := CartLineView{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: p.PriceCents * int64(it.Quantity),
			IsActive:       p.IsActive,
			BlendKey:       it.BlendKey,
		}
		snap.Lines = append(snap.Lines, view)
		if p.IsActive {
			snap.SubtotalCents += view.LineTotalCents
		}
	}
	return snap, nil
}
