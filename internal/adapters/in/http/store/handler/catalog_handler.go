// internal/adapters/in/http/store/handler/catalog_handler.go
package storeHandler

import (
	"log"
	"net/http"
	"strings"

	proddom "steepery/internal/domain/product"
)

// CatalogHandler serves read-only product browsing:
//
//   - GET /store/products?category=&tag=     listing, active rows only
//   - GET /store/products/{id}               single product
type CatalogHandler struct {
	products proddom.Repository
}

func NewCatalogHandler(products proddom.Repository) http.Handler {
	return &CatalogHandler{products: products}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.products == nil {
		writeErr(w, http.StatusInternalServerError, "catalog handler is not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")

	if path == "/store/products" {
		h.handleList(w, r)
		return
	}
	if id := strings.TrimPrefix(path, "/store/products/"); id != path && id != "" {
		h.handleGet(w, r, id)
		return
	}
	methodNotAllowed(w)
}

func (h *CatalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	f := proddom.Filter{
		Category:   strings.TrimSpace(r.URL.Query().Get("category")),
		Tag:        strings.TrimSpace(r.URL.Query().Get("tag")),
		ActiveOnly: true,
	}

	products, err := h.products.List(r.Context(), f)
	if err != nil {
		log.Printf("[store_catalog_handler] list failed: %v", err)
		writeDomainErr(w, err)
		return
	}
	if products == nil {
		products = []proddom.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *CatalogHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
