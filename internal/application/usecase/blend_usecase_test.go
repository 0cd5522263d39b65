package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blenddom "steepery/internal/domain/blend"
	ingdom "steepery/internal/domain/ingredient"
	proddom "steepery/internal/domain/product"
)

func newBlendFixture() (*memStore, *BlendUsecase) {
	s := newMemStore()
	uc := NewBlendUsecaseWithClock(memIngredientRepo{s}, memProductRepo{s}, fixedClock{time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)})
	seedIngredient(s, "earl-grey", ingdom.KindBase, 1299, 1, 0, 0, true)
	seedIngredient(s, "vanilla", ingdom.KindAddIn, 100, 0.25, 0.25, 25, true)
	seedIngredient(s, "lavender", ingdom.KindAddIn, 150, 0.25, 0.25, 50, true)
	return s, uc
}

func TestMaterialize_CreatesCatalogProduct(t *testing.T) {
	_, uc := newBlendFixture()
	ctx := context.Background()

	p, err := uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "vanilla", Quantity: 0.5}}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1424), p.PriceCents)
	assert.Equal(t, proddom.CategoryCustomBlend, p.Category)
	assert.Equal(t, blenddom.BlendStockSentinel, p.Stock)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.BlendKey)
	assert.Equal(t, "blend:earl-grey:vanilla:0.5", *p.BlendKey)
	assert.True(t, p.HasTag(*p.BlendKey), "composition key is discoverable via tags")
	assert.Equal(t, "Custom Ingredient earl-grey Blend (+1 add-in)", p.Name)
}

func TestMaterialize_IdempotentAcrossOrderings(t *testing.T) {
	_, uc := newBlendFixture()
	ctx := context.Background()

	first, err := uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{
		{IngredientID: "vanilla", Quantity: 0.5},
		{IngredientID: "lavender", Quantity: 0.25},
	}, "")
	require.NoError(t, err)

	second, err := uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{
		{IngredientID: "lavender", Quantity: 0.25},
		{IngredientID: "vanilla", Quantity: 0.5},
	}, "Someone Else's Name")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "equal compositions resolve to one product row")
	assert.Equal(t, first.Name, second.Name, "reuse keeps the original name")
	assert.Equal(t, first.PriceCents, second.PriceCents, "price is fixed at first materialization")
}

func TestMaterialize_CustomName(t *testing.T) {
	_, uc := newBlendFixture()
	ctx := context.Background()

	p, err := uc.Materialize(ctx, "earl-grey", nil, "  Morning Ritual  ")
	require.NoError(t, err)
	assert.Equal(t, "Morning Ritual", p.Name)
}

func TestMaterialize_PriceSurvivesIngredientChange(t *testing.T) {
	s, uc := newBlendFixture()
	ctx := context.Background()

	first, err := uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "vanilla", Quantity: 0.5}}, "")
	require.NoError(t, err)

	// Reprice the ingredient after the first materialization.
	ing := s.ingredients["vanilla"]
	ing.BasePriceCents = 999
	s.ingredients["vanilla"] = ing

	second, err := uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "vanilla", Quantity: 0.5}}, "")
	require.NoError(t, err)
	assert.Equal(t, first.PriceCents, second.PriceCents, "existing blends keep their price")
}

func TestMaterialize_DeactivatedBlendRefusesOrdering(t *testing.T) {
	s, uc := newBlendFixture()
	ctx := context.Background()

	first, err := uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "vanilla", Quantity: 0.5}}, "")
	require.NoError(t, err)

	p := s.products[first.ID]
	p.IsActive = false
	s.products[first.ID] = p

	_, err = uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "vanilla", Quantity: 0.5}}, "")
	assert.ErrorIs(t, err, blenddom.ErrUnavailable, "the key stays bound to the deactivated row")
	assert.NotErrorIs(t, err, proddom.ErrNotFound)
}

func TestMaterialize_Validation(t *testing.T) {
	s, uc := newBlendFixture()
	ctx := context.Background()

	_, err := uc.Materialize(ctx, "", nil, "")
	assert.ErrorIs(t, err, blenddom.ErrNoBase)

	_, err = uc.Materialize(ctx, "missing", nil, "")
	assert.ErrorIs(t, err, ingdom.ErrNotFound)

	_, err = uc.Materialize(ctx, "vanilla", nil, "")
	assert.ErrorIs(t, err, blenddom.ErrNoBase, "an add-in cannot serve as the base")

	_, err = uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "missing", Quantity: 0.5}}, "")
	assert.ErrorIs(t, err, ingdom.ErrNotFound)

	seedIngredient(s, "retired", ingdom.KindAddIn, 100, 0.25, 0.25, 25, false)
	_, err = uc.Materialize(ctx, "earl-grey", []blenddom.AddIn{{IngredientID: "retired", Quantity: 0.5}}, "")
	assert.ErrorIs(t, err, blenddom.ErrIngredientInactive)

	inactiveBase := seedIngredient(s, "oolong", ingdom.KindBase, 1000, 1, 0, 0, false)
	_, err = uc.Materialize(ctx, inactiveBase.ID, nil, "")
	assert.ErrorIs(t, err, blenddom.ErrIngredientInactive)
}
