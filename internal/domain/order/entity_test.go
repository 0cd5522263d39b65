package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p1", ProductName: "Sencha", PriceCents: 1200, Quantity: 2},
		{ProductID: "p2", ProductName: "Earl Grey", PriceCents: 1424, Quantity: 1},
	}
}

func TestNew_UserOrderTotals(t *testing.T) {
	o, err := New("o1", "ORD-20260830-ABC123", "user-1", "", ShippingSnapshot{Name: "A"}, testItems(), time.Now())
	require.NoError(t, err)

	require.NotNil(t, o.UserID)
	assert.Equal(t, "user-1", *o.UserID)
	assert.Nil(t, o.GuestEmail)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, int64(2*1200+1424), o.TotalCents)

	for _, it := range o.Items {
		assert.Equal(t, "o1", it.OrderID)
	}
}

func TestNew_GuestOrder(t *testing.T) {
	o, err := New("o1", "ORD-20260830-ABC123", "", "guest@example.com", ShippingSnapshot{}, testItems(), time.Now())
	require.NoError(t, err)

	require.NotNil(t, o.GuestEmail)
	assert.Equal(t, "guest@example.com", *o.GuestEmail)
	assert.Nil(t, o.UserID)
}

func TestNew_OwnerExclusivity(t *testing.T) {
	_, err := New("o1", "ORD-1", "user-1", "guest@example.com", ShippingSnapshot{}, testItems(), time.Now())
	assert.ErrorIs(t, err, ErrInvalidOwner, "both buyer identities must be rejected")

	_, err = New("o1", "ORD-1", "", "", ShippingSnapshot{}, testItems(), time.Now())
	assert.ErrorIs(t, err, ErrInvalidOwner, "neither buyer identity must be rejected")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("", "ORD-1", "user-1", "", ShippingSnapshot{}, testItems(), time.Now())
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = New("o1", "ORD-1", "user-1", "", ShippingSnapshot{}, nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalid, "an order without items must be rejected")

	_, err = New("o1", "ORD-1", "user-1", "", ShippingSnapshot{}, []OrderItem{
		{ProductID: "p1", Quantity: 0, PriceCents: 100},
	}, time.Now())
	assert.ErrorIs(t, err, ErrInvalid)
}
