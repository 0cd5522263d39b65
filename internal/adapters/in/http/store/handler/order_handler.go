// internal/adapters/in/http/store/handler/order_handler.go
package storeHandler

import (
	"log"
	"net/http"
	"strings"

	"steepery/internal/adapters/in/http/middleware"
	usecase "steepery/internal/application/usecase"
	"steepery/internal/domain/identity"
	orderdom "steepery/internal/domain/order"
)

// OrderHandler covers checkout and order retrieval:
//
//   - POST /store/orders          place an order from the current cart
//   - POST /store/checkout        alias for the above
//   - GET  /store/orders          authenticated user's history
//   - GET  /store/orders/{id}     single order (owner checked)
type OrderHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewOrderHandler(uc *usecase.CheckoutUsecase) http.Handler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "order handler is not configured")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")

	switch {
	case path == "/store/checkout" && r.Method == http.MethodPost,
		path == "/store/orders" && r.Method == http.MethodPost:
		h.handleCheckout(w, r)
	case path == "/store/orders" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case strings.HasPrefix(path, "/store/orders/") && r.Method == http.MethodGet:
		h.handleGet(w, r, strings.TrimPrefix(path, "/store/orders/"))
	default:
		methodNotAllowed(w)
	}
}

type checkoutRequest struct {
	Shipping   orderdom.ShippingSnapshot `json:"shipping"`
	GuestEmail string                    `json:"guestEmail"`
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	var req checkoutRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	_, email, _ := middleware.CurrentUserUIDAndEmail(r)

	o, err := h.uc.PlaceOrder(r.Context(), owner, usecase.PlaceOrderInput{
		Shipping:   req.Shipping,
		GuestEmail: req.GuestEmail,
		UserEmail:  email,
	})
	if err != nil {
		log.Printf("[store_order_handler] checkout failed: %v", err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "order history requires an authenticated user")
		return
	}

	orders, err := h.uc.ListOrders(r.Context(), identity.ForUser(uid))
	if err != nil {
		log.Printf("[store_order_handler] list failed: %v", err)
		writeDomainErr(w, err)
		return
	}
	if orders == nil {
		orders = []*orderdom.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	o, err := h.uc.GetOrder(r.Context(), owner, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
