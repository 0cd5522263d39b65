// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	httpin "steepery/internal/adapters/in/http"
	"steepery/internal/adapters/in/http/middleware"
	"steepery/internal/adapters/out/db"
	"steepery/internal/adapters/out/mail"
	usecase "steepery/internal/application/usecase"
	"steepery/internal/infra/config"
	"steepery/internal/infra/database"
	"steepery/internal/infra/metrics"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur := h.v.Load()
	if cur == nil {
		http.NotFound(w, r)
		return
	}
	cur.(http.Handler).ServeHTTP(w, r)
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Start listening ASAP with a lightweight mux (healthz only); the full
	// router is swapped in once the heavy dependencies are up.
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	switcher := newAtomicHandler(middleware.CORS(cfg.CORSAllowOrigin)(healthMux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var dbHolder atomic.Value // stores *database.DB (or nil)
	dbHolder.Store((*database.DB)(nil))

	shuttingDown := make(chan struct{})

	// Graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c

		close(shuttingDown)
		log.Printf("[boot] received signal: %v; shutting down...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[boot] server shutdown error: %v", err)
		}

		if v := dbHolder.Load(); v != nil {
			if conn, ok := v.(*database.DB); ok && conn != nil {
				log.Printf("[boot] closing database...")
				if err := conn.Close(); err != nil {
					log.Printf("[boot] database close error: %v", err)
				}
				dbHolder.Store((*database.DB)(nil))
			}
		}

		close(idleConnsClosed)
	}()

	// Start server NOW (Cloud Run startup requirement)
	go func() {
		log.Printf("[boot] listening on :%s (store)", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[boot] server error: %v", err)
		}
	}()

	// Heavy init in background; then swap handler to the full router.
	go func() {
		initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		conn, err := database.NewConnection(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		if err != nil {
			log.Printf("[boot] WARN: database init failed: %v (serving /healthz only)", err)
			return
		}
		dbHolder.Store(conn)

		select {
		case <-shuttingDown:
			_ = conn.Close()
			return
		default:
		}

		// Firebase Auth is optional: without it the storefront is guest-only.
		// A credentials file is only needed for local dev; on the platform,
		// Application Default Credentials apply.
		var fbAuth *middleware.FirebaseAuthClient
		if cfg.FirebaseProjectID != "" {
			var clientOpts []option.ClientOption
			if cfg.GoogleCredentialsFile != "" {
				clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
				log.Printf("[boot] using credentials file for Firebase")
			}
			fbApp, err := firebase.NewApp(initCtx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOpts...)
			if err != nil {
				log.Printf("[boot] WARN: firebase app init failed: %v (guest-only mode)", err)
			} else if authClient, err := fbApp.Auth(initCtx); err != nil {
				log.Printf("[boot] WARN: firebase auth init failed: %v (guest-only mode)", err)
			} else {
				fbAuth = authClient
				log.Printf("[boot] Firebase Auth initialized")
			}
		}

		// Repositories
		carts := db.NewCartRepositoryPG(conn.Client)
		products := db.NewProductRepositoryPG(conn.Client)
		ingredients := db.NewIngredientRepositoryPG(conn.Client)
		orders := db.NewOrderRepositoryPG(conn.Client)
		tx := db.NewSQLTransactor(conn.Client)

		// Mail (optional)
		var mailer usecase.OrderMailer
		if cfg.SendGridAPIKey != "" {
			mailer = mail.NewOrderMailer(mail.NewSendGridClient(cfg.SendGridAPIKey), cfg.MailFrom)
			log.Printf("[boot] order confirmation mail enabled from=%s", cfg.MailFrom)
		}

		// Usecases
		cartUC := usecase.NewCartUsecase(carts, products, tx)
		blendUC := usecase.NewBlendUsecase(ingredients, products)
		checkoutUC := usecase.NewCheckoutUsecase(carts, products, orders, tx, mailer)

		router := httpin.NewRouter(httpin.RouterDeps{
			CartUC:          cartUC,
			BlendUC:         blendUC,
			CheckoutUC:      checkoutUC,
			Products:        products,
			FirebaseAuth:    fbAuth,
			Metrics:         metrics.NewServerMetrics("store"),
			CORSAllowOrigin: cfg.CORSAllowOrigin,
		})

		switcher.Store(router)
		log.Printf("[boot] handler switched to store router")
	}()

	<-idleConnsClosed
	log.Printf("[boot] server stopped")
}
