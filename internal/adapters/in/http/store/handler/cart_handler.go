// internal/adapters/in/http/store/handler/cart_handler.go
package storeHandler

import (
	"log"
	"net/http"
	"strings"

	"steepery/internal/adapters/in/http/middleware"
	usecase "steepery/internal/application/usecase"
)

// CartHandler serves the cart endpoints:
//
//   - GET    /store/cart                      current snapshot
//   - DELETE /store/cart                      clear all lines
//   - POST   /store/cart/items                add quantity of a product
//   - PUT    /store/cart/items/{productId}    set absolute quantity
//   - DELETE /store/cart/items/{productId}    remove a line
//   - POST   /store/cart/merge                fold guest cart into user cart
type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) http.Handler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")

	switch {
	case path == "/store/cart" && r.Method == http.MethodGet:
		h.handleGet(w, r)
	case path == "/store/cart" && r.Method == http.MethodDelete:
		h.handleClear(w, r)
	case path == "/store/cart/items" && r.Method == http.MethodPost:
		h.handleAddItem(w, r)
	case strings.HasPrefix(path, "/store/cart/items/") && (r.Method == http.MethodPatch || r.Method == http.MethodPut):
		h.handleUpdateItem(w, r, itemID(path))
	case strings.HasPrefix(path, "/store/cart/items/") && r.Method == http.MethodDelete:
		h.handleRemoveItem(w, r, itemID(path))
	case path == "/store/cart/merge" && r.Method == http.MethodPost:
		h.handleMerge(w, r)
	default:
		methodNotAllowed(w)
	}
}

func itemID(path string) string {
	return strings.TrimPrefix(path, "/store/cart/items/")
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	snap, err := h.uc.Get(r.Context(), owner)
	if err != nil {
		log.Printf("[store_cart_handler] get failed: %v", err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	snap, err := h.uc.Clear(r.Context(), owner)
	if err != nil {
		log.Printf("[store_cart_handler] clear failed: %v", err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	var req addItemRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	snap, err := h.uc.AddItem(r.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("[store_cart_handler] add item failed product=%s qty=%d: %v", req.ProductID, req.Quantity, err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request, productID string) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	var req updateItemRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	snap, err := h.uc.UpdateItem(r.Context(), owner, productID, req.Quantity)
	if err != nil {
		log.Printf("[store_cart_handler] update item failed product=%s qty=%d: %v", productID, req.Quantity, err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request, productID string) {
	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	snap, err := h.uc.RemoveItem(r.Context(), owner, productID)
	if err != nil {
		log.Printf("[store_cart_handler] remove item failed product=%s: %v", productID, err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type mergeRequest struct {
	SessionID string `json:"sessionId"`
}

// handleMerge requires a verified user: the guest cart named by sessionId is
// folded into the user's cart and deleted.
func (h *CartHandler) handleMerge(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "merge requires an authenticated user")
		return
	}

	var req mergeRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.uc.MergeGuestCart(r.Context(), uid, req.SessionID)
	if err != nil {
		log.Printf("[store_cart_handler] merge failed session=%q: %v", req.SessionID, err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
