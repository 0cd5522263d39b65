// internal/adapters/out/db/ingredient_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	dbcommon "steepery/internal/adapters/out/db/common"
	ingdom "steepery/internal/domain/ingredient"
)

// IngredientRepositoryPG implements ingredient.Repository (read-only) using
// PostgreSQL.
type IngredientRepositoryPG struct {
	DB *sql.DB
}

func NewIngredientRepositoryPG(db *sql.DB) *IngredientRepositoryPG {
	return &IngredientRepositoryPG{DB: db}
}

const ingredientColumns = `id, name, kind, base_price_cents, base_amount, increment_amount, increment_price_cents, is_active, created_at, updated_at`

func scanIngredient(row dbcommon.RowScanner) (ingdom.Ingredient, error) {
	var i ingdom.Ingredient
	var kind string
	err := row.Scan(&i.ID, &i.Name, &kind, &i.BasePriceCents, &i.BaseAmount, &i.IncrementAmount, &i.IncrementPriceCents, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return ingdom.Ingredient{}, err
	}
	i.Kind = ingdom.Kind(kind)
	return i, nil
}

func (r *IngredientRepositoryPG) GetByID(ctx context.Context, id string) (ingdom.Ingredient, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`
	i, err := scanIngredient(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ingdom.Ingredient{}, ingdom.ErrNotFound
		}
		return ingdom.Ingredient{}, err
	}
	return i, nil
}

func (r *IngredientRepositoryPG) ListByIDs(ctx context.Context, ids []string) (map[string]ingdom.Ingredient, error) {
	out := map[string]ingdom.Ingredient{}
	if len(ids) == 0 {
		return out, nil
	}

	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = ANY($1)`
	rows, err := run.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out[i.ID] = i
	}
	return out, rows.Err()
}
