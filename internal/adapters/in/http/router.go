// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"steepery/internal/adapters/in/http/middleware"
	"steepery/internal/adapters/in/http/store"
	storeHandler "steepery/internal/adapters/in/http/store/handler"
	usecase "steepery/internal/application/usecase"
	proddom "steepery/internal/domain/product"
	"steepery/internal/infra/metrics"
)

// RouterDeps collects the dependencies injected from main.go.
type RouterDeps struct {
	CartUC     *usecase.CartUsecase
	BlendUC    *usecase.BlendUsecase
	CheckoutUC *usecase.CheckoutUsecase

	// Products backs the read-only catalog endpoints directly.
	Products proddom.Repository

	// FirebaseAuth may be nil; requests then run guest-only.
	FirebaseAuth *middleware.FirebaseAuthClient

	Metrics *metrics.ServerMetrics

	CORSAllowOrigin string
}

// NewRouter assembles the storefront router with its middleware chain:
// CORS outermost, then panic recovery, then optional token verification.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())

	meter := func(name string, h http.Handler) http.Handler {
		return middleware.Metrics(deps.Metrics, name)(h)
	}

	store.Register(mux, store.Deps{
		Catalog: meter("catalog", storeHandler.NewCatalogHandler(deps.Products)),
		Cart:    meter("cart", storeHandler.NewCartHandler(deps.CartUC)),
		Blend:   meter("blend", storeHandler.NewBlendHandler(deps.BlendUC, deps.CartUC)),
		Order:   meter("order", storeHandler.NewOrderHandler(deps.CheckoutUC)),
	})

	auth := &middleware.OptionalUserAuth{FirebaseAuth: deps.FirebaseAuth}

	var h http.Handler = mux
	h = auth.Handler(h)
	h = middleware.Recover(h)
	h = middleware.CORS(deps.CORSAllowOrigin)(h)
	return h
}
