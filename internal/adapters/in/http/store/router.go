// internal/adapters/in/http/store/router.go
package store

import (
	"log"
	"net/http"
)

// Deps is the storefront handler set.
type Deps struct {
	Catalog http.Handler
	Cart    http.Handler
	Blend   http.Handler
	Order   http.Handler
}

// handleSafe registers pattern with h.
// If h is nil, it logs and registers NotFoundHandler instead.
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Printf("[store.router] WARN: nil handler: %s pattern=%s (registering NotFoundHandler)", name, pattern)
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

// Register registers storefront routes onto mux.
func Register(mux *http.ServeMux, deps Deps) {
	if mux == nil {
		return
	}

	// catalog
	handleSafe(mux, "/store/products", deps.Catalog, "Catalog")
	handleSafe(mux, "/store/products/", deps.Catalog, "Catalog")

	// cart
	handleSafe(mux, "/store/cart", deps.Cart, "Cart")
	handleSafe(mux, "/store/cart/", deps.Cart, "Cart")

	// custom blends; both patterns win over the /store/cart/ prefix, and the
	// trailing-slash one keeps /store/cart/blend/ off the cart handler
	handleSafe(mux, "/store/cart/blend", deps.Blend, "Blend")
	handleSafe(mux, "/store/cart/blend/", deps.Blend, "Blend")

	// checkout / orders
	handleSafe(mux, "/store/checkout", deps.Order, "Order")
	handleSafe(mux, "/store/orders", deps.Order, "Order")
	handleSafe(mux, "/store/orders/", deps.Order, "Order")
}
