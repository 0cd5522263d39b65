package product

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndReserve_Sufficient(t *testing.T) {
	svc := NewStockService()
	p := Product{ID: "p1", Stock: 10}

	assert.NoError(t, svc.CheckAndReserve(p, 10, 0))
	assert.NoError(t, svc.CheckAndReserve(p, 4, 6))
}

func TestCheckAndReserve_Insufficient(t *testing.T) {
	svc := NewStockService()
	p := Product{ID: "p1", Stock: 5}

	err := svc.CheckAndReserve(p, 3, 3)
	require.Error(t, err)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)
}

func TestCheckAndReserve_NegativeInput(t *testing.T) {
	svc := NewStockService()
	p := Product{ID: "p1", Stock: 5}

	assert.ErrorIs(t, svc.CheckAndReserve(p, -1, 0), ErrInvalid)
	assert.ErrorIs(t, svc.CheckAndReserve(p, 0, -1), ErrInvalid)
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" green ", "herbal", "green", "", "caffeine-free"})
	assert.Equal(t, []string{"caffeine-free", "green", "herbal"}, got)
}

func TestNew_Validation(t *testing.T) {
	now := time.Now()

	_, err := New("", "Sencha", "", "tea", nil, 100, 1, true, nil, now)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = New("p1", " ", "", "tea", nil, 100, 1, true, nil, now)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = New("p1", "Sencha", "", "tea", nil, -1, 1, true, nil, now)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = New("p1", "Sencha", "", "tea", nil, 100, -1, true, nil, now)
	assert.ErrorIs(t, err, ErrInvalid)

	blank := "  "
	p, err := New("p1", "Sencha", "", "tea", nil, 100, 1, true, &blank, now)
	require.NoError(t, err)
	assert.Nil(t, p.BlendKey, "blank blend key normalizes to nil")
}
