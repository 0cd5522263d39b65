// internal/application/usecase/common_usecase.go
package usecase

import (
	"context"
	"time"
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Transactor runs fn inside one database transaction. The derived ctx carries
// the transaction; repositories route their statements through it. fn
// returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// nopTransactor calls fn directly; used where a usecase is constructed
// without a store-level transactor (tests).
type nopTransactor struct{}

func (nopTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
