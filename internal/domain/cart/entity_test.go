package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steepery/internal/domain/identity"
)

func TestNew_UserCart(t *testing.T) {
	c, err := New("cart-1", identity.ForUser("user-1"), time.Now())
	require.NoError(t, err)

	require.NotNil(t, c.UserID)
	assert.Equal(t, "user-1", *c.UserID)
	assert.Nil(t, c.SessionID)
	assert.True(t, c.IsEmpty())
}

func TestNew_GuestCart(t *testing.T) {
	c, err := New("cart-1", identity.ForGuest("guest-session-1"), time.Now())
	require.NoError(t, err)

	require.NotNil(t, c.SessionID)
	assert.Equal(t, "guest-session-1", *c.SessionID)
	assert.Nil(t, c.UserID)
}

func TestValidate_OwnerExclusivity(t *testing.T) {
	uid := "user-1"
	sid := "guest-session-1"

	both := &Cart{ID: "cart-1", UserID: &uid, SessionID: &sid}
	assert.ErrorIs(t, both.Validate(), ErrInvalidCart, "both owners set must be invalid")

	neither := &Cart{ID: "cart-1"}
	assert.ErrorIs(t, neither.Validate(), ErrInvalidCart, "no owner set must be invalid")

	blank := ""
	blankUser := &Cart{ID: "cart-1", UserID: &blank}
	assert.ErrorIs(t, blankUser.Validate(), ErrInvalidCart, "blank user id counts as absent")
}

func TestValidate_LineSanity(t *testing.T) {
	uid := "user-1"
	c := &Cart{ID: "cart-1", UserID: &uid, Items: []CartItem{
		{CartID: "cart-1", ProductID: "p1", Quantity: 0},
	}}
	assert.ErrorIs(t, c.Validate(), ErrInvalidCart)
}

func TestItemAndItemCount(t *testing.T) {
	uid := "user-1"
	c := &Cart{ID: "cart-1", UserID: &uid, Items: []CartItem{
		{CartID: "cart-1", ProductID: "p1", Quantity: 2},
		{CartID: "cart-1", ProductID: "p2", Quantity: 3},
	}}

	require.NotNil(t, c.Item("p1"))
	assert.Equal(t, 2, c.Item("p1").Quantity)
	assert.Nil(t, c.Item("p9"))
	assert.Equal(t, 5, c.ItemCount())
	assert.False(t, c.IsEmpty())
}
