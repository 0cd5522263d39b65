package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "steepery/internal/domain/cart"
	"steepery/internal/domain/identity"
	proddom "steepery/internal/domain/product"
)

func newCartFixture() (*memStore, *CartUsecase) {
	s := newMemStore()
	uc := NewCartUsecase(memCartRepo{s}, memProductRepo{s}, snapshotTx{s})
	return s, uc
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	_, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")

	c1, err := uc.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	c2, err := uc.GetOrCreate(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID, "same owner must resolve to the same cart")
}

func TestGet_AbsentCartReadsEmpty(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()

	snap, err := uc.Get(ctx, identity.ForGuest("guest-session-1"))
	require.NoError(t, err)

	assert.Nil(t, snap.Cart)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.SubtotalCents)
	assert.Empty(t, s.carts, "a read must not create a cart")
}

func TestAddItem_Accumulates(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 10, true)

	_, err := uc.AddItem(ctx, owner, "p1", 3)
	require.NoError(t, err)
	snap, err := uc.AddItem(ctx, owner, "p1", 3)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 6, snap.Lines[0].Quantity, "adding twice accumulates, it does not replace")
	assert.Equal(t, int64(7200), snap.SubtotalCents)
	assert.Equal(t, 6, snap.ItemCount)
}

func TestAddItem_RejectsBeyondStockAndRollsBack(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 5, true)

	_, err := uc.AddItem(ctx, owner, "p1", 4)
	require.NoError(t, err)

	_, err = uc.AddItem(ctx, owner, "p1", 2)
	var stockErr *proddom.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	snap, err := uc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 4, snap.Lines[0].Quantity, "a failed add must not change the line")
}

func TestAddItem_Validation(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "inactive", 1000, 10, false)

	_, err := uc.AddItem(ctx, owner, "p1", 0)
	assert.ErrorIs(t, err, cartdom.ErrInvalidQuantity)

	_, err = uc.AddItem(ctx, owner, "missing", 1)
	assert.ErrorIs(t, err, proddom.ErrNotFound)

	_, err = uc.AddItem(ctx, owner, "inactive", 1)
	assert.ErrorIs(t, err, cartdom.ErrInactiveProduct)
}

func TestUpdateItem_ReplacesQuantity(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 10, true)

	_, err := uc.AddItem(ctx, owner, "p1", 6)
	require.NoError(t, err)

	snap, err := uc.UpdateItem(ctx, owner, "p1", 2)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity, "update is absolute, not additive")
}

func TestUpdateItem_MissingLine(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 10, true)

	_, err := uc.UpdateItem(ctx, owner, "p1", 2)
	assert.ErrorIs(t, err, cartdom.ErrItemNotFound, "no cart at all")

	_, err = uc.AddItem(ctx, owner, "p1", 1)
	require.NoError(t, err)
	_, err = uc.UpdateItem(ctx, owner, "p2", 2)
	assert.ErrorIs(t, err, cartdom.ErrItemNotFound, "cart exists but line does not")
}

func TestRemoveItem_Idempotent(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 10, true)

	_, err := uc.AddItem(ctx, owner, "p1", 2)
	require.NoError(t, err)

	snap, err := uc.RemoveItem(ctx, owner, "p1")
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)

	// Absent line and absent cart both succeed.
	_, err = uc.RemoveItem(ctx, owner, "p1")
	assert.NoError(t, err)
	_, err = uc.RemoveItem(ctx, identity.ForGuest("guest-session-1"), "p1")
	assert.NoError(t, err)
}

func TestClear_KeepsCartRow(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 10, true)
	seedProduct(s, "p2", 800, 10, true)

	_, err := uc.AddItem(ctx, owner, "p1", 2)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, owner, "p2", 1)
	require.NoError(t, err)

	snap, err := uc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	require.NotNil(t, snap.Cart, "clear empties lines but keeps the cart")
}

func TestSnapshot_InactiveLineExcludedFromSubtotal(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	owner := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 10, true)
	seedProduct(s, "p2", 800, 10, true)

	_, err := uc.AddItem(ctx, owner, "p1", 2)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, owner, "p2", 1)
	require.NoError(t, err)

	// Deactivate p2 after it entered the cart.
	p2 := s.products["p2"]
	p2.IsActive = false
	s.products["p2"] = p2

	snap, err := uc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, int64(2400), snap.SubtotalCents, "inactive line stays visible but does not count")
	assert.Equal(t, 3, snap.ItemCount, "item count still counts every line")
}

func TestMergeGuestCart_MovesAndAccumulates(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	guest := identity.ForGuest("guest-session-1")
	user := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 100, true)
	seedProduct(s, "p2", 800, 100, true)

	_, err := uc.AddItem(ctx, guest, "p1", 2)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, guest, "p2", 1)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, user, "p1", 3)
	require.NoError(t, err)

	res, err := uc.MergeGuestCart(ctx, "user-1", "guest-session-1")
	require.NoError(t, err)
	assert.Empty(t, res.Adjustments)

	byID := map[string]int{}
	for _, l := range res.Snapshot.Lines {
		byID[l.ProductID] = l.Quantity
	}
	assert.Equal(t, 5, byID["p1"], "colliding line accumulates")
	assert.Equal(t, 1, byID["p2"], "unique guest line moves over")

	_, err = uc.carts.GetByOwner(ctx, guest)
	assert.ErrorIs(t, err, cartdom.ErrNotFound, "guest cart must be deleted")
}

func TestMergeGuestCart_ClampsToStock(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	guest := identity.ForGuest("guest-session-1")
	user := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 5, true)

	_, err := uc.AddItem(ctx, guest, "p1", 3)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, user, "p1", 4)
	require.NoError(t, err)

	res, err := uc.MergeGuestCart(ctx, "user-1", "guest-session-1")
	require.NoError(t, err)

	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, "p1", res.Adjustments[0].ProductID)
	assert.Equal(t, 7, res.Adjustments[0].Requested)
	assert.Equal(t, 5, res.Adjustments[0].Kept)

	require.Len(t, res.Snapshot.Lines, 1)
	assert.Equal(t, 5, res.Snapshot.Lines[0].Quantity, "clamped to stock, never below what the user held")
}

func TestMergeGuestCart_DropsRetiredCollidingLine(t *testing.T) {
	s, uc := newCartFixture()
	ctx := context.Background()
	guest := identity.ForGuest("guest-session-1")
	user := identity.ForUser("user-1")
	seedProduct(s, "p1", 1200, 100, true)
	seedProduct(s, "p2", 800, 100, true)

	_, err := uc.AddItem(ctx, guest, "p1", 2)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, guest, "p2", 1)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, user, "p1", 3)
	require.NoError(t, err)

	// p1 leaves the catalog while it sits in both carts.
	delete(s.products, "p1")

	res, err := uc.MergeGuestCart(ctx, "user-1", "guest-session-1")
	require.NoError(t, err, "a vanished product must not abort the merge")

	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, "p1", res.Adjustments[0].ProductID)
	assert.Equal(t, 5, res.Adjustments[0].Requested)
	assert.Equal(t, 3, res.Adjustments[0].Kept, "the user keeps what they already held")

	byID := map[string]int{}
	for _, l := range res.Snapshot.Lines {
		byID[l.ProductID] = l.Quantity
	}
	assert.Equal(t, 3, byID["p1"])
	assert.Equal(t, 1, byID["p2"], "the rest of the merge still goes through")

	_, err = uc.carts.GetByOwner(ctx, guest)
	assert.ErrorIs(t, err, cartdom.ErrNotFound, "guest cart must be deleted")
}

func TestMergeGuestCart_NoGuestCart(t *testing.T) {
	_, uc := newCartFixture()
	ctx := context.Background()

	res, err := uc.MergeGuestCart(ctx, "user-1", "guest-session-1")
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.Lines)
	require.NotNil(t, res.Snapshot.Cart, "user cart is created even when there is nothing to merge")
}

func TestMergeGuestCart_Validation(t *testing.T) {
	_, uc := newCartFixture()
	ctx := context.Background()

	_, err := uc.MergeGuestCart(ctx, "", "guest-session-1")
	assert.ErrorIs(t, err, identity.ErrMissing)

	_, err = uc.MergeGuestCart(ctx, "user-1", "bad!session")
	assert.ErrorIs(t, err, identity.ErrInvalidSession)
}
