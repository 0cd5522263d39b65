// internal/domain/product/service.go
package product

import "fmt"

// InsufficientStockError reports a stock check failure with the figures the
// client needs to render "only N left, you requested M".
type InsufficientStockError struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s: insufficient stock: available=%d requested=%d", e.ProductID, e.Available, e.Requested)
}

// StockService is the single authority on "is there enough stock".
//
// At cart-mutation time the check is non-binding (nothing is reserved for a
// cart that may be abandoned). At checkout the same check runs against rows
// locked FOR UPDATE and the decrement happens in the same transaction.
type StockService struct{}

func NewStockService() *StockService {
	return &StockService{}
}

// CheckAndReserve validates that p can cover requested units on top of
// currentlyHeld units already attributed to the caller. Returns nil when the
// stock suffices.
func (s *StockService) CheckAndReserve(p Product, requested, currentlyHeld int) error {
	if requested < 0 || currentlyHeld < 0 {
		return ErrInvalid
	}
	total := currentlyHeld + requested
	if p.Stock < total {
		return &InsufficientStockError{
			ProductID: p.ID,
			Available: p.Stock,
			Requested: total,
		}
	}
	return nil
}
