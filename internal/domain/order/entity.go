// internal/domain/order/entity.go
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("order: not found")
	ErrInvalid          = errors.New("order: invalid")
	ErrInvalidOwner     = errors.New("order: exactly one of userId or guest identity required")
	ErrGuestEmailNeeded = errors.New("order: guest orders require an email address")
)

// ShippingSnapshot is the address as entered at checkout, frozen with the
// order.
type ShippingSnapshot struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// OrderItem snapshots one cart line at commit time. PriceCents is copied from
// the product in the checkout transaction and never recalculated: an order's
// total must not change when catalog prices later do.
type OrderItem struct {
	OrderID     string  `json:"orderId"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	PriceCents  int64   `json:"priceCents"`
	Quantity    int     `json:"quantity"`
	BlendKey    *string `json:"blendKey,omitempty"`
}

// Order is the immutable result of a checkout. Status transitions are an
// external collaborator's concern; this engine only ever creates orders.
type Order struct {
	ID          string           `json:"id"`
	OrderNumber string           `json:"orderNumber"`
	UserID      *string          `json:"userId,omitempty"`
	GuestEmail  *string          `json:"guestEmail,omitempty"`
	Status      string           `json:"status"`
	Shipping    ShippingSnapshot `json:"shipping"`
	Items       []OrderItem      `json:"items"`
	TotalCents  int64            `json:"totalCents"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// StatusPending is the only status this engine writes.
const StatusPending = "pending"

// New assembles a validated order snapshot. Exactly one of userID or
// guestEmail identifies the buyer.
func New(id, orderNumber, userID, guestEmail string, shipping ShippingSnapshot, items []OrderItem, now time.Time) (*Order, error) {
	o := &Order{
		ID:          strings.TrimSpace(id),
		OrderNumber: strings.TrimSpace(orderNumber),
		Status:      StatusPending,
		Shipping:    shipping,
		Items:       items,
		CreatedAt:   now,
	}

	uid := strings.TrimSpace(userID)
	email := strings.TrimSpace(guestEmail)
	switch {
	case uid != "" && email == "":
		o.UserID = &uid
	case uid == "" && email != "":
		o.GuestEmail = &email
	default:
		return nil, ErrInvalidOwner
	}

	if o.ID == "" || o.OrderNumber == "" {
		return nil, ErrInvalid
	}
	if len(items) == 0 {
		return nil, ErrInvalid
	}
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity < 1 || it.PriceCents < 0 {
			return nil, fmt.Errorf("%w: item %s", ErrInvalid, it.ProductID)
		}
		o.TotalCents += it.PriceCents * int64(it.Quantity)
	}
	return o, nil
}

// OrdersTableDDL is rendered by cmd/ddlgen into the migrations directory.
const OrdersTableDDL = `
-- Orders DDL generated from domain/order entity.

CREATE TABLE IF NOT EXISTS orders (
  id            TEXT PRIMARY KEY,
  order_number  TEXT        NOT NULL UNIQUE,
  user_id       TEXT,
  guest_email   TEXT,
  status        TEXT        NOT NULL DEFAULT 'pending',
  ship_name     TEXT        NOT NULL DEFAULT '',
  ship_street   TEXT        NOT NULL DEFAULT '',
  ship_city     TEXT        NOT NULL DEFAULT '',
  ship_state    TEXT        NOT NULL DEFAULT '',
  ship_zip      TEXT        NOT NULL DEFAULT '',
  ship_country  TEXT        NOT NULL DEFAULT '',
  total_cents   BIGINT      NOT NULL CHECK (total_cents >= 0),
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  CONSTRAINT ck_orders_one_buyer
    CHECK ((user_id IS NOT NULL) <> (guest_email IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id    ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items (
  order_id     TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id   TEXT    NOT NULL,
  product_name TEXT    NOT NULL DEFAULT '',
  price_cents  BIGINT  NOT NULL CHECK (price_cents >= 0),
  quantity     INTEGER NOT NULL CHECK (quantity >= 1),
  blend_key    TEXT,

  PRIMARY KEY (order_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id);
`
