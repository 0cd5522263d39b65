// internal/adapters/in/http/store/handler/blend_handler.go
package storeHandler

import (
	"log"
	"net/http"
	"strings"

	usecase "steepery/internal/application/usecase"
	blenddom "steepery/internal/domain/blend"
	proddom "steepery/internal/domain/product"
)

// BlendHandler materializes custom blend compositions:
//
//   - POST /store/cart/blend
//
// The composition resolves to its backing catalog product (created on first
// sight, reused after), the product is added to the caller's cart, and the
// updated cart snapshot comes back together with the blend product.
type BlendHandler struct {
	blend *usecase.BlendUsecase
	cart  *usecase.CartUsecase
}

func NewBlendHandler(blend *usecase.BlendUsecase, cart *usecase.CartUsecase) http.Handler {
	return &BlendHandler{blend: blend, cart: cart}
}

type blendAddInRequest struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

type materializeRequest struct {
	BaseTeaID string              `json:"baseTeaId"`
	Name      string              `json:"name"`
	AddIns    []blendAddInRequest `json:"addIns"`
}

type materializeResponse struct {
	usecase.CartSnapshot
	BlendProduct proddom.Product `json:"blendProduct"`
}

func (h *BlendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.blend == nil || h.cart == nil {
		writeErr(w, http.StatusInternalServerError, "blend handler is not configured")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")
	if path != "/store/cart/blend" || r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	owner, err := currentOwner(r)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	var req materializeRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	addIns := make([]blenddom.AddIn, 0, len(req.AddIns))
	for _, a := range req.AddIns {
		addIns = append(addIns, blenddom.AddIn{IngredientID: a.IngredientID, Quantity: a.Quantity})
	}

	p, err := h.blend.Materialize(r.Context(), req.BaseTeaID, addIns, req.Name)
	if err != nil {
		log.Printf("[store_blend_handler] materialize failed base=%s addIns=%d: %v", req.BaseTeaID, len(req.AddIns), err)
		writeDomainErr(w, err)
		return
	}

	snap, err := h.cart.AddItem(r.Context(), owner, p.ID, 1)
	if err != nil {
		log.Printf("[store_blend_handler] add blend to cart failed product=%s: %v", p.ID, err)
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materializeResponse{CartSnapshot: snap, BlendProduct: p})
}
