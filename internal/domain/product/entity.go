// internal/domain/product/entity.go
package product

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("product: not found")
	ErrInactive    = errors.New("product: not active")
	ErrInvalidID   = errors.New("product: invalid id")
	ErrInvalidName = errors.New("product: invalid name")
	ErrInvalid     = errors.New("product: invalid")

	// ErrDuplicateBlendKey is the repo-translated unique violation on
	// uq_products_blend_key; the materializer reselects the winner's row.
	ErrDuplicateBlendKey = errors.New("product: blend key already exists")
)

// CategoryCustomBlend tags products materialized from a blend composition.
// They live in the ordinary catalog; the category plus the composition key in
// Tags make them discoverable and de-duplicatable without a separate table.
const CategoryCustomBlend = "custom-blend"

// Product is a sellable catalog entity. PriceCents is integer cents; Stock is
// the sellable unit count and never goes negative through this engine.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	PriceCents  int64    `json:"priceCents"`
	Stock       int      `json:"stock"`
	IsActive    bool     `json:"isActive"`

	// BlendKey is set only for materialized blends; it carries the canonical
	// composition key and is unique across the catalog.
	BlendKey *string `json:"blendKey,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New validates and normalizes a catalog product.
func New(id, name, description, category string, tags []string, priceCents int64, stock int, isActive bool, blendKey *string, now time.Time) (Product, error) {
	p := Product{
		ID:          strings.TrimSpace(id),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Tags:        NormalizeTags(tags),
		PriceCents:  priceCents,
		Stock:       stock,
		IsActive:    isActive,
		BlendKey:    normalizeStrPtr(blendKey),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (p Product) validate() error {
	if p.ID == "" {
		return ErrInvalidID
	}
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.PriceCents < 0 || p.Stock < 0 {
		return ErrInvalid
	}
	return nil
}

// HasTag reports whether the normalized tag set contains tag.
func (p Product) HasTag(tag string) bool {
	t := strings.TrimSpace(tag)
	for _, v := range p.Tags {
		if v == t {
			return true
		}
	}
	return false
}

// NormalizeTags trims, drops empties and duplicates, and sorts for stable
// storage and comparison.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ProductsTableDDL is rendered by cmd/ddlgen into the migrations directory.
const ProductsTableDDL = `
-- Products DDL generated from domain/product entity.

CREATE TABLE IF NOT EXISTS products (
  id          TEXT PRIMARY KEY,
  name        TEXT        NOT NULL CHECK (name <> ''),
  description TEXT        NOT NULL DEFAULT '',
  category    TEXT        NOT NULL DEFAULT '',
  tags        TEXT[]      NOT NULL DEFAULT '{}',
  price_cents BIGINT      NOT NULL CHECK (price_cents >= 0),
  stock       INTEGER     NOT NULL DEFAULT 0 CHECK (stock >= 0),
  is_active   BOOLEAN     NOT NULL DEFAULT TRUE,
  blend_key   TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Composition keys must be unique: two shoppers materializing the same blend
-- concurrently race on this index (insert, catch 23505, reselect).
CREATE UNIQUE INDEX IF NOT EXISTS uq_products_blend_key ON products(blend_key) WHERE blend_key IS NOT NULL;

-- Tag discovery (tags @> ARRAY['custom-blend'] etc.)
CREATE INDEX IF NOT EXISTS idx_products_tags_gin  ON products USING GIN (tags);
CREATE INDEX IF NOT EXISTS idx_products_category  ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_is_active ON products(is_active);
`
