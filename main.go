package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pieces-auto/paygate/db/sqlc"
	"github.com/pieces-auto/paygate/domain"
	"github.com/pieces-auto/paygate/handlers"
	"github.com/pieces-auto/paygate/internal/audit"
	"github.com/pieces-auto/paygate/internal/config"
	"github.com/pieces-auto/paygate/internal/gate"
	"github.com/pieces-auto/paygate/internal/ledger"
	"github.com/pieces-auto/paygate/internal/replay"
	"github.com/pieces-auto/paygate/internal/signature"
	"github.com/pieces-auto/paygate/internal/store"
	"github.com/redis/go-redis/v9"
)

// Rate Limiter
var (
	clients = make(map[string]*client)
	mu      sync.Mutex
)

type client struct {
	lastSeen time.Time
	requests int
}

func rateLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ip := r.RemoteAddr
		if c, found := clients[ip]; found {
			if time.Since(c.lastSeen) > 1*time.Minute {
				c.requests = 1
				c.lastSeen = time.Now()
			} else {
				c.requests++
			}
			if c.requests > 30 {
				mu.Unlock()
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
		} else {
			clients[ip] = &client{lastSeen: time.Now(), requests: 1}
		}
		mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Database connection
	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Unable to connect to database:", err)
	}
	defer dbpool.Close()
	db := sqlc.New(dbpool)

	// Signers are built once at startup; a malformed secret must stop the
	// process here, never surface per request.
	payboxSigner, err := signature.NewPayboxSigner(cfg.Paybox.HMACSecretHex)
	if err != nil {
		log.Fatal("Invalid Paybox key material:", err)
	}
	systemPaySigner := signature.NewSystemPaySigner(cfg.SystemPay.Certificate, cfg.SystemPay.HMACKey, cfg.SystemPay.Method)

	// Audit journal (local sqlite, goose-migrated)
	journalStore, err := store.New(cfg.AuditDBPath)
	if err != nil {
		log.Fatal("Unable to open audit journal:", err)
	}
	defer journalStore.DB.Close()
	if err := journalStore.AutoMigrate(cfg.MigrationsDir); err != nil {
		log.Fatal("Unable to migrate audit journal:", err)
	}
	journal := audit.NewJournal(journalStore.DB)
	auditLog := audit.NewLogger(slog.Default(), journal)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	seen := replay.NewCache(rdb)

	orders := ledger.NewStore(db)
	g := gate.New(gate.Config{
		Mode:                 cfg.Mode,
		PayboxSigner:         payboxSigner,
		PayboxIdentity:       cfg.Paybox.Identity,
		PayboxSuccessCode:    cfg.Paybox.SuccessCode,
		SystemPaySigner:      systemPaySigner,
		SystemPaySiteID:      cfg.SystemPay.SiteID,
		SystemPaySuccessCode: cfg.SystemPay.SuccessCode,
	}, orders, seen)

	api := handlers.NewAPI(cfg, db, orders, g, auditLog, journal)

	router := http.NewServeMux()
	router.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Bank notification endpoints. Unauthenticated by nature; the gate is
	// the trust boundary. GET is served too: legacy integrations notify
	// via query string.
	router.HandleFunc("POST /ipn/paybox", api.HandlePayboxIPN)
	router.HandleFunc("GET /ipn/paybox", api.HandlePayboxIPN)
	router.HandleFunc("POST /ipn/systempay", api.HandleSystemPayIPN)
	router.HandleFunc("GET /ipn/systempay", api.HandleSystemPayIPN)

	router.Handle("POST /api/v1/payments",
		rateLimiter(api.APIKeyAuthMiddleware(http.HandlerFunc(api.HandleCreatePayment))))
	router.Handle("GET /api/v1/reports",
		api.OperatorAuthMiddleware(http.HandlerFunc(api.HandleListReports)))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 2 * time.Minute,
	}
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"mode", cfg.Mode.String())
		if cfg.Mode == domain.ModeShadow {
			slog.Info("Shadow enforcement: validation failures are logged, never rejected")
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	} else {
		slog.Info("Server gracefully stopped")
	}
}
