// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"

	"steepery/internal/domain/identity"
)

var (
	ErrInvalidCart     = errors.New("cart: invalid")
	ErrNotFound        = errors.New("cart: not found")
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrEmpty           = errors.New("cart: cart is empty")
	ErrInactiveProduct = errors.New("cart: product is not active")
	ErrInvalidQuantity = errors.New("cart: quantity must be >= 1")

	// ErrDuplicateOwner is the repo-translated unique violation on the owner
	// indexes; callers refetch instead of failing the request.
	ErrDuplicateOwner = errors.New("cart: cart already exists for owner")
)

// CartItem is one line of a cart. (CartID, ProductID) is unique; Quantity is
// always >= 1; removal deletes the row instead of zeroing it.
type CartItem struct {
	CartID    string  `json:"cartId"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	// BlendKey back-references the composition when the product is a
	// materialized blend; it survives merges because merge reassigns rows.
	BlendKey *string `json:"blendKey,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Cart is owned by exactly one of UserID or SessionID, never both and never
// neither.
type Cart struct {
	ID        string     `json:"id"`
	UserID    *string    `json:"userId,omitempty"`
	SessionID *string    `json:"sessionId,omitempty"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// New creates an empty cart for the given owner.
func New(id string, owner identity.Identity, now time.Time) (*Cart, error) {
	c := &Cart{
		ID:        strings.TrimSpace(id),
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch owner.Kind() {
	case identity.KindUser:
		uid := owner.UserID()
		c.UserID = &uid
	case identity.KindGuest:
		sid := owner.SessionID()
		c.SessionID = &sid
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate enforces the owner-exclusivity invariant and line item sanity.
func (c *Cart) Validate() error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCart
	}
	hasUser := c.UserID != nil && strings.TrimSpace(*c.UserID) != ""
	hasSession := c.SessionID != nil && strings.TrimSpace(*c.SessionID) != ""
	if hasUser == hasSession {
		return ErrInvalidCart
	}
	for _, it := range c.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity < 1 {
			return ErrInvalidCart
		}
	}
	return nil
}

// Item returns the line for productID, or nil.
func (c *Cart) Item(productID string) *CartItem {
	pid := strings.TrimSpace(productID)
	for i := range c.Items {
		if c.Items[i].ProductID == pid {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemCount sums line quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// CartsTableDDL is rendered by cmd/ddlgen into the migrations directory.
const CartsTableDDL = `
-- Carts DDL generated from domain/cart entity.

CREATE TABLE IF NOT EXISTS carts (
  id         TEXT PRIMARY KEY,
  user_id    TEXT,
  session_id TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  -- exactly one owner
  CONSTRAINT ck_carts_one_owner
    CHECK ((user_id IS NOT NULL) <> (session_id IS NOT NULL))
);

-- One cart per owner; the get-or-create race resolves on these indexes
-- (catch 23505, refetch).
CREATE UNIQUE INDEX IF NOT EXISTS uq_carts_user_id    ON carts(user_id)    WHERE user_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_carts_session_id ON carts(session_id) WHERE session_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS cart_items (
  cart_id    TEXT    NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT    NOT NULL REFERENCES products(id),
  quantity   INTEGER NOT NULL CHECK (quantity >= 1),
  blend_key  TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  PRIMARY KEY (cart_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_cart_items_product_id ON cart_items(product_id);
`
