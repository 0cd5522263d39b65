// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	cartdom "steepery/internal/domain/cart"
	"steepery/internal/domain/identity"
	orderdom "steepery/internal/domain/order"
	proddom "steepery/internal/domain/product"
)

// OrderMailer is an outbound port for the post-checkout confirmation email.
// Sending is fire-and-forget: a mail failure never unwinds a committed order.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, toEmail string, o *orderdom.Order) error
}

// PlaceOrderInput is the app-level checkout input.
type PlaceOrderInput struct {
	Shipping   orderdom.ShippingSnapshot
	GuestEmail string
	// UserEmail, when known from the auth token, receives the confirmation
	// email for authenticated orders.
	UserEmail string
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CheckoutUsecase converts a populated cart into an immutable order in one
// database transaction: re-validate every line against freshly locked product
// rows, snapshot prices, decrement stock, destroy the cart. Concurrent
// checkouts conflicting on a product serialize on the row locks, so stock
// never goes negative and no partial order is ever visible.
type CheckoutUsecase struct {
	carts    cartdom.Repository
	products proddom.Repository
	orders   orderdom.Repository
	stock    *proddom.StockService
	tx       Transactor
	mailer   OrderMailer
	clock    Clock
}

func NewCheckoutUsecase(carts cartdom.Repository, products proddom.Repository, orders orderdom.Repository, tx Transactor, mailer OrderMailer) *CheckoutUsecase {
	return NewCheckoutUsecaseWithClock(carts, products, orders, tx, mailer, nil)
}

// NewCheckoutUsecaseWithClock is useful for tests.
func NewCheckoutUsecaseWithClock(carts cartdom.Repository, products proddom.Repository, orders orderdom.Repository, tx Transactor, mailer OrderMailer, clock Clock) *CheckoutUsecase {
	if tx == nil {
		tx = nopTransactor{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &CheckoutUsecase{
		carts:    carts,
		products: products,
		orders:   orders,
		stock:    proddom.NewStockService(),
		tx:       tx,
		mailer:   mailer,
		clock:    clock,
	}
}

// PlaceOrder runs the checkout for the owner's cart.
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, owner identity.Identity, in PlaceOrderInput) (*orderdom.Order, error) {
	guestEmail := strings.TrimSpace(in.GuestEmail)
	if owner.IsGuest() {
		if guestEmail == "" {
			return nil, orderdom.ErrGuestEmailNeeded
		}
		if !emailRe.MatchString(guestEmail) {
			return nil, fmt.Errorf("%w: malformed address", orderdom.ErrGuestEmailNeeded)
		}
	} else {
		guestEmail = ""
	}

	var placed *orderdom.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := u.carts.GetByOwner(ctx, owner)
		if errors.Is(err, cartdom.ErrNotFound) {
			return cartdom.ErrEmpty
		}
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return cartdom.ErrEmpty
		}

		// Lock every product row touched, in sorted id order, before any
		// validation: the check must hold at the moment of commit, not the
		// moment the item entered the cart.
		ids := make([]string, 0, len(c.Items))
		for _, it := range c.Items {
			ids = append(ids, it.ProductID)
		}
		sort.Strings(ids)
		locked, err := u.products.GetForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("checkout: failed to lock products: %w", err)
		}

		items := make([]orderdom.OrderItem, 0, len(c.Items))
		for _, line := range c.Items {
			p, ok := locked[line.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", proddom.ErrNotFound, line.ProductID)
			}
			if !p.IsActive {
				return fmt.Errorf("%w: %s", cartdom.ErrInactiveProduct, p.ID)
			}
			if err := u.stock.CheckAndReserve(p, line.Quantity, 0); err != nil {
				return err
			}
			items = append(items, orderdom.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				PriceCents:  p.PriceCents,
				Quantity:    line.Quantity,
				BlendKey:    line.BlendKey,
			})
		}

		now := u.clock.Now()
		o, err := orderdom.New(uuid.NewString(), newOrderNumber(now), owner.UserID(), guestEmail, in.Shipping, items, now)
		if err != nil {
			return err
		}
		if err := u.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("checkout: failed to create order: %w", err)
		}

		for _, it := range o.Items {
			if err := u.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("checkout: failed to decrement stock for %s: %w", it.ProductID, err)
			}
		}

		if err := u.carts.ClearItems(ctx, c.ID); err != nil {
			return fmt.Errorf("checkout: failed to clear cart: %w", err)
		}
		if err := u.carts.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("checkout: failed to delete cart: %w", err)
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[checkout_uc] order placed id=%s number=%s lines=%d total_cents=%d",
		placed.ID, placed.OrderNumber, len(placed.Items), placed.TotalCents)

	u.notify(placed, in.UserEmail)
	return placed, nil
}

// GetOrder returns an order when the owner may see it: the buying user, or
// anyone presenting the order id for a guest order.
func (u *CheckoutUsecase) GetOrder(ctx context.Context, owner identity.Identity, orderID string) (*orderdom.Order, error) {
	o, err := u.orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if o.UserID != nil && (!owner.IsUser() || owner.UserID() != *o.UserID) {
		return nil, orderdom.ErrNotFound
	}
	return o, nil
}

// ListOrders returns the authenticated user's order history, newest first.
// Guests have no history: a guest order is retrievable by id only.
func (u *CheckoutUsecase) ListOrders(ctx context.Context, owner identity.Identity) ([]*orderdom.Order, error) {
	if !owner.IsUser() {
		return nil, identity.ErrMissing
	}
	return u.orders.ListByUserID(ctx, owner.UserID())
}

// notify sends the confirmation email off the request path. Failures are
// logged and dropped: the order is already committed.
func (u *CheckoutUsecase) notify(o *orderdom.Order, userEmail string) {
	if u.mailer == nil {
		return
	}
	to := strings.TrimSpace(userEmail)
	if o.GuestEmail != nil {
		to = *o.GuestEmail
	}
	if to == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := u.mailer.SendOrderConfirmation(ctx, to, o); err != nil {
			log.Printf("[checkout_uc] WARN: confirmation mail failed order=%s err=%v", o.ID, err)
		}
	}()
}

// newOrderNumber builds a human-readable order number: ORD-YYYYMMDD-XXXXXX.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
