// internal/adapters/out/db/order_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	dbcommon "steepery/internal/adapters/out/db/common"
	orderdom "steepery/internal/domain/order"
)

// OrderRepositoryPG implements order.Repository using PostgreSQL. Orders are
// written once, inside the checkout transaction, and only ever read after.
type OrderRepositoryPG struct {
	DB *sql.DB
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db}
}

func (r *OrderRepositoryPG) Create(ctx context.Context, o *orderdom.Order) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	const qOrder = `
INSERT INTO orders (id, order_number, user_id, guest_email, status,
  ship_name, ship_street, ship_city, ship_state, ship_zip, ship_country,
  total_cents, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := run.ExecContext(ctx, qOrder,
		o.ID, o.OrderNumber, o.UserID, o.GuestEmail, o.Status,
		o.Shipping.Name, o.Shipping.Street, o.Shipping.City, o.Shipping.State, o.Shipping.ZipCode, o.Shipping.Country,
		o.TotalCents, o.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}

	const qItem = `
INSERT INTO order_items (order_id, product_id, product_name, price_cents, quantity, blend_key)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range o.Items {
		if _, err := run.ExecContext(ctx, qItem, o.ID, it.ProductID, it.ProductName, it.PriceCents, it.Quantity, it.BlendKey); err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, order_number, user_id, guest_email, status,
  ship_name, ship_street, ship_city, ship_state, ship_zip, ship_country,
  total_cents, created_at`

func scanOrder(row dbcommon.RowScanner) (*orderdom.Order, error) {
	var o orderdom.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.GuestEmail, &o.Status,
		&o.Shipping.Name, &o.Shipping.Street, &o.Shipping.City, &o.Shipping.State, &o.Shipping.ZipCode, &o.Shipping.Country,
		&o.TotalCents, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (*orderdom.Order, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orderdom.ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepositoryPG) ListByUserID(ctx context.Context, userID string) ([]*orderdom.Order, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := run.QueryContext(ctx, q, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*orderdom.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range out {
		items, err := r.loadItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return out, nil
}

func (r *OrderRepositoryPG) loadItems(ctx context.Context, orderID string) ([]orderdom.OrderItem, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
SELECT order_id, product_id, product_name, price_cents, quantity, blend_key
FROM order_items
WHERE order_id = $1
ORDER BY product_id ASC`
	rows, err := run.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []orderdom.OrderItem{}
	for rows.Next() {
		var it orderdom.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.ProductName, &it.PriceCents, &it.Quantity, &it.BlendKey); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
