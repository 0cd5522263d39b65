// internal/adapters/out/db/cart_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	dbcommon "steepery/internal/adapters/out/db/common"
	cartdom "steepery/internal/domain/cart"
	"steepery/internal/domain/identity"
)

// CartRepositoryPG implements cart.Repository using PostgreSQL.
type CartRepositoryPG struct {
	DB *sql.DB
}

func NewCartRepositoryPG(db *sql.DB) *CartRepositoryPG {
	return &CartRepositoryPG{DB: db}
}

func (r *CartRepositoryPG) GetByOwner(ctx context.Context, owner identity.Identity) (*cartdom.Cart, error) {
	run := dbcommon.GetRunner(ctx, r.DB)

	var (
		ownerCol string
		ownerVal string
	)
	switch owner.Kind() {
	case identity.KindUser:
		ownerCol, ownerVal = "user_id", owner.UserID()
	case identity.KindGuest:
		ownerCol, ownerVal = "session_id", owner.SessionID()
	default:
		return nil, identity.ErrMissing
	}

	q := fmt.Sprintf(`
SELECT id, user_id, session_id, created_at, updated_at
FROM carts
WHERE %s = $1`, ownerCol)

	var c cartdom.Cart
	err := run.QueryRowContext(ctx, q, ownerVal).Scan(&c.ID, &c.UserID, &c.SessionID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cartdom.ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *CartRepositoryPG) loadItems(ctx context.Context, cartID string) ([]cartdom.CartItem, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
SELECT cart_id, product_id, quantity, blend_key, created_at, updated_at
FROM cart_items
WHERE cart_id = $1
ORDER BY product_id ASC`
	rows, err := run.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []cartdom.CartItem{}
	for rows.Next() {
		var it cartdom.CartItem
		if err := rows.Scan(&it.CartID, &it.ProductID, &it.Quantity, &it.BlendKey, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts the cart row. ON CONFLICT DO NOTHING keeps the enclosing
// transaction usable when another request won the create race; the zero
// rows-affected case is reported as ErrDuplicateOwner so the caller refetches.
func (r *CartRepositoryPG) Create(ctx context.Context, c *cartdom.Cart) error {
	if err := c.Validate(); err != nil {
		return err
	}
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
INSERT INTO carts (id, user_id, session_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT DO NOTHING`
	res, err := run.ExecContext(ctx, q, c.ID, c.UserID, c.SessionID, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return cartdom.ErrDuplicateOwner
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cartdom.ErrDuplicateOwner
	}
	return nil
}

func (r *CartRepositoryPG) Delete(ctx context.Context, cartID string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	_, err := run.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, strings.TrimSpace(cartID))
	return err
}

// Lock acquires FOR UPDATE locks on the cart rows in sorted id order so two
// merges touching the same carts cannot deadlock.
func (r *CartRepositoryPG) Lock(ctx context.Context, cartIDs ...string) error {
	if len(cartIDs) == 0 {
		return nil
	}
	ids := append([]string(nil), cartIDs...)
	sort.Strings(ids)

	run := dbcommon.GetRunner(ctx, r.DB)
	rows, err := run.QueryContext(ctx, `SELECT id FROM carts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// AddItemQuantity accumulates onto the line atomically and returns the
// combined quantity. The upsert form makes concurrent adds serialize on the
// row instead of losing updates.
func (r *CartRepositoryPG) AddItemQuantity(ctx context.Context, cartID, productID string, qty int, blendKey *string) (int, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
INSERT INTO cart_items (cart_id, product_id, quantity, blend_key)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, product_id)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
RETURNING quantity`
	var combined int
	if err := run.QueryRowContext(ctx, q, strings.TrimSpace(cartID), strings.TrimSpace(productID), qty, blendKey).Scan(&combined); err != nil {
		return 0, err
	}
	if err := r.touch(ctx, cartID); err != nil {
		return 0, err
	}
	return combined, nil
}

func (r *CartRepositoryPG) SetItemQuantity(ctx context.Context, cartID, productID string, qty int) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
UPDATE cart_items
SET quantity = $3, updated_at = NOW()
WHERE cart_id = $1 AND product_id = $2`
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(cartID), strings.TrimSpace(productID), qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cartdom.ErrItemNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepositoryPG) RemoveItem(ctx context.Context, cartID, productID string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	// Absence is fine: removal is idempotent.
	_, err := run.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		strings.TrimSpace(cartID), strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepositoryPG) ClearItems(ctx context.Context, cartID string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	_, err := run.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, strings.TrimSpace(cartID))
	if err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// ReassignItem repoints the line at another cart, preserving the row's blend
// back-reference.
func (r *CartRepositoryPG) ReassignItem(ctx context.Context, fromCartID, toCartID, productID string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
UPDATE cart_items
SET cart_id = $2, updated_at = NOW()
WHERE cart_id = $1 AND product_id = $3`
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(fromCartID), strings.TrimSpace(toCartID), strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cartdom.ErrItemNotFound
	}
	return r.touch(ctx, toCartID)
}

func (r *CartRepositoryPG) touch(ctx context.Context, cartID string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	_, err := run.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, strings.TrimSpace(cartID))
	return err
}
