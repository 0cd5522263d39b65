// internal/domain/ingredient/entity.go
package ingredient

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("ingredient: not found")
	ErrInactive  = errors.New("ingredient: not active")
	ErrInvalidID = errors.New("ingredient: invalid id")
	ErrInvalid   = errors.New("ingredient: invalid")
)

// Kind separates base teas from add-ins.
type Kind string

const (
	KindBase  Kind = "base"
	KindAddIn Kind = "add-in"
)

// Ingredient is read-only reference data for the blend materializer.
//
// Pricing fields: BasePriceCents covers the first BaseAmount units; every
// further full IncrementAmount adds IncrementPriceCents. Amounts are ounces.
type Ingredient struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Kind                Kind      `json:"kind"`
	BasePriceCents      int64     `json:"basePriceCents"`
	BaseAmount          float64   `json:"baseAmount"`
	IncrementAmount     float64   `json:"incrementAmount"`
	IncrementPriceCents int64     `json:"incrementPriceCents"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func New(id, name string, kind Kind, basePriceCents int64, baseAmount, incrementAmount float64, incrementPriceCents int64, isActive bool, now time.Time) (Ingredient, error) {
	ing := Ingredient{
		ID:                  strings.TrimSpace(id),
		Name:                strings.TrimSpace(name),
		Kind:                kind,
		BasePriceCents:      basePriceCents,
		BaseAmount:          baseAmount,
		IncrementAmount:     incrementAmount,
		IncrementPriceCents: incrementPriceCents,
		IsActive:            isActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := ing.validate(); err != nil {
		return Ingredient{}, err
	}
	return ing, nil
}

func (i Ingredient) validate() error {
	if i.ID == "" {
		return ErrInvalidID
	}
	if i.Name == "" {
		return ErrInvalid
	}
	if i.Kind != KindBase && i.Kind != KindAddIn {
		return ErrInvalid
	}
	if i.BasePriceCents < 0 || i.IncrementPriceCents < 0 {
		return ErrInvalid
	}
	if i.BaseAmount < 0 || i.IncrementAmount < 0 {
		return ErrInvalid
	}
	return nil
}

// IngredientsTableDDL is rendered by cmd/ddlgen into the migrations directory.
const IngredientsTableDDL = `
-- Ingredients DDL generated from domain/ingredient entity.

CREATE TABLE IF NOT EXISTS ingredients (
  id                    TEXT PRIMARY KEY,
  name                  TEXT             NOT NULL CHECK (name <> ''),
  kind                  TEXT             NOT NULL CHECK (kind IN ('base','add-in')),
  base_price_cents      BIGINT           NOT NULL CHECK (base_price_cents >= 0),
  base_amount           DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (base_amount >= 0),
  increment_amount      DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (increment_amount >= 0),
  increment_price_cents BIGINT           NOT NULL DEFAULT 0 CHECK (increment_price_cents >= 0),
  is_active             BOOLEAN          NOT NULL DEFAULT TRUE,
  created_at            TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
  updated_at            TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ingredients_kind      ON ingredients(kind);
CREATE INDEX IF NOT EXISTS idx_ingredients_is_active ON ingredients(is_active);
`
