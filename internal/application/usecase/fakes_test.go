package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	cartdom "steepery/internal/domain/cart"
	"steepery/internal/domain/identity"
	ingdom "steepery/internal/domain/ingredient"
	orderdom "steepery/internal/domain/order"
	proddom "steepery/internal/domain/product"
)

// memStore is an in-memory stand-in for the PG adapters. A snapshotTx over it
// restores the pre-transaction state on error, mirroring a rollback.
type memStore struct {
	mu          sync.Mutex
	carts       map[string]*cartdom.Cart
	products    map[string]proddom.Product
	ingredients map[string]ingdom.Ingredient
	orders      map[string]*orderdom.Order
}

func newMemStore() *memStore {
	return &memStore{
		carts:       map[string]*cartdom.Cart{},
		products:    map[string]proddom.Product{},
		ingredients: map[string]ingdom.Ingredient{},
		orders:      map[string]*orderdom.Order{},
	}
}

func copyCart(c *cartdom.Cart) *cartdom.Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]cartdom.CartItem(nil), c.Items...)
	return &cp
}

func (s *memStore) snapshot() *memStore {
	out := newMemStore()
	for k, v := range s.carts {
		out.carts[k] = copyCart(v)
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.ingredients {
		out.ingredients[k] = v
	}
	for k, v := range s.orders {
		cp := *v
		cp.Items = append([]orderdom.OrderItem(nil), v.Items...)
		out.orders[k] = &cp
	}
	return out
}

func (s *memStore) restore(from *memStore) {
	s.carts = from.carts
	s.products = from.products
	s.ingredients = from.ingredients
	s.orders = from.orders
}

// snapshotTx simulates transactional all-or-nothing over memStore.
type snapshotTx struct {
	store *memStore
}

func (t snapshotTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.mu.Lock()
	before := t.store.snapshot()
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.restore(before)
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// ---- cart repository ----

type memCartRepo struct{ s *memStore }

func (r memCartRepo) find(owner identity.Identity) *cartdom.Cart {
	for _, c := range r.s.carts {
		switch {
		case owner.IsUser() && c.UserID != nil && *c.UserID == owner.UserID():
			return c
		case owner.IsGuest() && c.SessionID != nil && *c.SessionID == owner.SessionID():
			return c
		}
	}
	return nil
}

func (r memCartRepo) GetByOwner(_ context.Context, owner identity.Identity) (*cartdom.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c := r.find(owner); c != nil {
		return copyCart(c), nil
	}
	return nil, cartdom.ErrNotFound
}

func (r memCartRepo) Create(_ context.Context, c *cartdom.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.carts {
		if c.UserID != nil && existing.UserID != nil && *existing.UserID == *c.UserID {
			return cartdom.ErrDuplicateOwner
		}
		if c.SessionID != nil && existing.SessionID != nil && *existing.SessionID == *c.SessionID {
			return cartdom.ErrDuplicateOwner
		}
	}
	r.s.carts[c.ID] = copyCart(c)
	return nil
}

func (r memCartRepo) Delete(_ context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.carts, cartID)
	return nil
}

func (r memCartRepo) Lock(_ context.Context, _ ...string) error { return nil }

func (r memCartRepo) AddItemQuantity(_ context.Context, cartID, productID string, qty int, blendKey *string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[cartID]
	if !ok {
		return 0, cartdom.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return c.Items[i].Quantity, nil
		}
	}
	c.Items = append(c.Items, cartdom.CartItem{
		CartID: cartID, ProductID: productID, Quantity: qty, BlendKey: blendKey,
	})
	return qty, nil
}

func (r memCartRepo) SetItemQuantity(_ context.Context, cartID, productID string, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[cartID]
	if !ok {
		return cartdom.ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return nil
		}
	}
	return cartdom.ErrItemNotFound
}

func (r memCartRepo) RemoveItem(_ context.Context, cartID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[cartID]
	if !ok {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r memCartRepo) ClearItems(_ context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.carts[cartID]; ok {
		c.Items = []cartdom.CartItem{}
	}
	return nil
}

func (r memCartRepo) ReassignItem(_ context.Context, fromCartID, toCartID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	from, ok := r.s.carts[fromCartID]
	if !ok {
		return cartdom.ErrNotFound
	}
	to, ok := r.s.carts[toCartID]
	if !ok {
		return cartdom.ErrNotFound
	}
	for i := range from.Items {
		if from.Items[i].ProductID == productID {
			moved := from.Items[i]
			moved.CartID = toCartID
			from.Items = append(from.Items[:i], from.Items[i+1:]...)
			to.Items = append(to.Items, moved)
			return nil
		}
	}
	return cartdom.ErrItemNotFound
}

// ---- product repository ----

type memProductRepo struct{ s *memStore }

func (r memProductRepo) GetByID(_ context.Context, id string) (proddom.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[strings.TrimSpace(id)]
	if !ok {
		return proddom.Product{}, proddom.ErrNotFound
	}
	return p, nil
}

func (r memProductRepo) List(_ context.Context, f proddom.Filter) ([]proddom.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []proddom.Product
	for _, p := range r.s.products {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Tag != "" && !p.HasTag(f.Tag) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memProductRepo) FindByBlendKey(_ context.Context, key string) (proddom.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.BlendKey != nil && *p.BlendKey == key {
			return p, nil
		}
	}
	return proddom.Product{}, proddom.ErrNotFound
}

func (r memProductRepo) Create(_ context.Context, p proddom.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.BlendKey != nil {
		for _, existing := range r.s.products {
			if existing.BlendKey != nil && *existing.BlendKey == *p.BlendKey {
				return proddom.ErrDuplicateBlendKey
			}
		}
	}
	r.s.products[p.ID] = p
	return nil
}

func (r memProductRepo) GetForUpdate(_ context.Context, ids []string) (map[string]proddom.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]proddom.Product{}
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r memProductRepo) DecrementStock(_ context.Context, id string, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return proddom.ErrNotFound
	}
	if p.Stock < qty {
		return &proddom.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: qty}
	}
	p.Stock -= qty
	r.s.products[id] = p
	return nil
}

// ---- ingredient repository ----

type memIngredientRepo struct{ s *memStore }

func (r memIngredientRepo) GetByID(_ context.Context, id string) (ingdom.Ingredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ing, ok := r.s.ingredients[strings.TrimSpace(id)]
	if !ok {
		return ingdom.Ingredient{}, ingdom.ErrNotFound
	}
	return ing, nil
}

func (r memIngredientRepo) ListByIDs(_ context.Context, ids []string) (map[string]ingdom.Ingredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]ingdom.Ingredient{}
	for _, id := range ids {
		if ing, ok := r.s.ingredients[id]; ok {
			out[id] = ing
		}
	}
	return out, nil
}

// ---- order repository ----

type memOrderRepo struct{ s *memStore }

func (r memOrderRepo) Create(_ context.Context, o *orderdom.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *o
	cp.Items = append([]orderdom.OrderItem(nil), o.Items...)
	r.s.orders[o.ID] = &cp
	return nil
}

func (r memOrderRepo) GetByID(_ context.Context, id string) (*orderdom.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[strings.TrimSpace(id)]
	if !ok {
		return nil, orderdom.ErrNotFound
	}
	cp := *o
	cp.Items = append([]orderdom.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r memOrderRepo) ListByUserID(_ context.Context, userID string) ([]*orderdom.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*orderdom.Order
	for _, o := range r.s.orders {
		if o.UserID != nil && *o.UserID == userID {
			cp := *o
			cp.Items = append([]orderdom.OrderItem(nil), o.Items...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- clock / mailer ----

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingMailer struct {
	mu   sync.Mutex
	sent []string // "to/orderNumber"
}

func (m *recordingMailer) SendOrderConfirmation(_ context.Context, toEmail string, o *orderdom.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail+"/"+o.OrderNumber)
	return nil
}

// ---- fixtures ----

func seedProduct(s *memStore, id string, priceCents int64, stock int, active bool) proddom.Product {
	p := proddom.Product{
		ID: id, Name: "Tea " + id, Category: "tea",
		PriceCents: priceCents, Stock: stock, IsActive: active,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.products[id] = p
	return p
}

func seedIngredient(s *memStore, id string, kind ingdom.Kind, baseCents int64, baseAmt, incAmt float64, incCents int64, active bool) ingdom.Ingredient {
	ing := ingdom.Ingredient{
		ID: id, Name: "Ingredient " + id, Kind: kind,
		BasePriceCents: baseCents, BaseAmount: baseAmt,
		IncrementAmount: incAmt, IncrementPriceCents: incCents,
		IsActive: active,
	}
	s.ingredients[id] = ing
	return ing
}
