// internal/adapters/out/db/product_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	dbcommon "steepery/internal/adapters/out/db/common"
	proddom "steepery/internal/domain/product"
)

// ProductRepositoryPG implements product.Repository using PostgreSQL.
type ProductRepositoryPG struct {
	DB *sql.DB
}

func NewProductRepositoryPG(db *sql.DB) *ProductRepositoryPG {
	return &ProductRepositoryPG{DB: db}
}

const productColumns = `id, name, description, category, tags, price_cents, stock, is_active, blend_key, created_at, updated_at`

func scanProduct(row dbcommon.RowScanner) (proddom.Product, error) {
	var p proddom.Product
	var tags pq.StringArray
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &tags, &p.PriceCents, &p.Stock, &p.IsActive, &p.BlendKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return proddom.Product{}, err
	}
	p.Tags = []string(tags)
	return p, nil
}

func (r *ProductRepositoryPG) GetByID(ctx context.Context, id string) (proddom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return proddom.Product{}, proddom.ErrNotFound
		}
		return proddom.Product{}, err
	}
	return p, nil
}

func (r *ProductRepositoryPG) List(ctx context.Context, filter proddom.Filter) ([]proddom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)

	where := []string{}
	args := []any{}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		args = append(args, c)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if t := strings.TrimSpace(filter.Tag); t != "" {
		args = append(args, pq.Array([]string{t}))
		where = append(where, fmt.Sprintf("tags @> $%d", len(args)))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	q := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY name ASC, id ASC`, productColumns, whereSQL)
	rows, err := run.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []proddom.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindByBlendKey matches on the key alone, active or not: the unique index
// guarantees at most one row per composition, and the caller decides what an
// inactive blend means.
func (r *ProductRepositoryPG) FindByBlendKey(ctx context.Context, key string) (proddom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + productColumns + ` FROM products WHERE blend_key = $1`
	p, err := scanProduct(run.QueryRowContext(ctx, q, strings.TrimSpace(key)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return proddom.Product{}, proddom.ErrNotFound
		}
		return proddom.Product{}, err
	}
	return p, nil
}

// Create inserts the product. A blend-key collision (two shoppers
// materializing the same novel composition at once) reports
// ErrDuplicateBlendKey without poisoning the enclosing transaction.
func (r *ProductRepositoryPG) Create(ctx context.Context, p proddom.Product) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
INSERT INTO products (id, name, description, category, tags, price_cents, stock, is_active, blend_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT DO NOTHING`
	res, err := run.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.Category, pq.Array(p.Tags),
		p.PriceCents, p.Stock, p.IsActive, p.BlendKey, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return proddom.ErrDuplicateBlendKey
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return proddom.ErrDuplicateBlendKey
	}
	return nil
}

// GetForUpdate locks the product rows for the rest of the transaction. ids
// must already be sorted; ORDER BY id keeps the lock order deterministic
// regardless.
func (r *ProductRepositoryPG) GetForUpdate(ctx context.Context, ids []string) (map[string]proddom.Product, error) {
	out := map[string]proddom.Product{}
	if len(ids) == 0 {
		return out, nil
	}

	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := run.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// DecrementStock subtracts qty. The WHERE guard is a belt on top of the row
// lock the caller holds; zero rows here means the validated stock vanished,
// which aborts the transaction.
func (r *ProductRepositoryPG) DecrementStock(ctx context.Context, id string, qty int) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
UPDATE products
SET stock = stock - $2, updated_at = NOW()
WHERE id = $1 AND stock >= $2`
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(id), qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The guard clause swallowed the update. Re-read the row, which the
		// caller already holds locked, so the error reports the real balance.
		var available int
		err := run.QueryRowContext(ctx,
			`SELECT stock FROM products WHERE id = $1`, strings.TrimSpace(id),
		).Scan(&available)
		if errors.Is(err, sql.ErrNoRows) {
			return proddom.ErrNotFound
		}
		if err != nil {
			return err
		}
		return &proddom.InsufficientStockError{
			ProductID: strings.TrimSpace(id),
			Available: available,
			Requested: qty,
		}
	}
	return nil
}
