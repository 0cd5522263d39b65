// internal/adapters/in/http/store/handler/helper_handler.go
package storeHandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"steepery/internal/adapters/in/http/middleware"
	blenddom "steepery/internal/domain/blend"
	cartdom "steepery/internal/domain/cart"
	"steepery/internal/domain/identity"
	ingdom "steepery/internal/domain/ingredient"
	orderdom "steepery/internal/domain/order"
	proddom "steepery/internal/domain/product"
)

// SessionHeader carries the guest session id. An authenticated bearer token
// always wins over this header.
const SessionHeader = "X-Session-Id"

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": strings.TrimSpace(msg)})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func readJSON(r *http.Request, dst any) error {
	if dst == nil {
		return errors.New("dst is nil")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)) // 1MB
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// currentOwner resolves the cart owner from the verified uid (set by the auth
// middleware) and the session header.
func currentOwner(r *http.Request) (identity.Identity, error) {
	uid, _ := middleware.CurrentUserUID(r)
	return identity.Resolve(uid, r.Header.Get(SessionHeader))
}

// ============================================================
// Error mapping
// ============================================================

var badRequestErrs = []error{
	identity.ErrMissing,
	identity.ErrInvalidSession,
	cartdom.ErrInvalidQuantity,
	cartdom.ErrEmpty,
	cartdom.ErrInactiveProduct,
	cartdom.ErrInvalidCart,
	proddom.ErrInactive,
	proddom.ErrInvalidID,
	proddom.ErrInvalid,
	ingdom.ErrInactive,
	ingdom.ErrInvalid,
	// A composition referencing an unknown ingredient is a malformed request,
	// not a missing resource.
	ingdom.ErrNotFound,
	blenddom.ErrNoBase,
	blenddom.ErrInvalidAddIn,
	blenddom.ErrIngredientInactive,
	blenddom.ErrUnavailable,
	orderdom.ErrInvalid,
	orderdom.ErrGuestEmailNeeded,
}

var notFoundErrs = []error{
	proddom.ErrNotFound,
	cartdom.ErrNotFound,
	cartdom.ErrItemNotFound,
	orderdom.ErrNotFound,
}

// writeDomainErr translates domain errors into HTTP statuses. Insufficient
// stock is a conflict and carries its structured detail so clients can show
// what is still available.
func writeDomainErr(w http.ResponseWriter, err error) {
	var stockErr *proddom.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient_stock",
			"productId": stockErr.ProductID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}

	for _, target := range notFoundErrs {
		if errors.Is(err, target) {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
	}
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	writeErr(w, http.StatusInternalServerError, "internal server error")
}
