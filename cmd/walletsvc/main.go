package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/romcheg/offline-cards/configs"
	"github.com/romcheg/offline-cards/internal/codegen"
	nats "github.com/romcheg/offline-cards/internal/nats"
	"github.com/romcheg/offline-cards/internal/walletsvc/broker"
	walletcfg "github.com/romcheg/offline-cards/internal/walletsvc/config"
	handlers "github.com/romcheg/offline-cards/internal/walletsvc/handlers"
	"github.com/romcheg/offline-cards/internal/walletsvc/service"
	"github.com/romcheg/offline-cards/internal/walletsvc/store"
)

const SERVICE_NAME = "wallet"

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	cfg, err := walletcfg.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cardStore, closeStore, err := store.Open(ctx, cfg.StoreDriver, cfg.PostgresURL, cfg.MongoURI)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()
	log.Infof("%s store ready", cfg.StoreDriver)

	// change events are optional; the wallet works offline without NATS
	var notifier service.Notifier
	n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Warnf("NATS unavailable, running without change events: %v", err)
	} else {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		notifier = broker.NewBroker(n.Conn)
	}

	renderer := codegen.NewDefaultRenderer(cfg.QREncoder)
	cardService, err := service.NewCardService(cardStore, renderer, notifier, cfg.MaxPendingImports)
	if err != nil {
		log.Fatalf("Failed to init card service: %v", err)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(cardService, cfg.WalletPort)
	h.InitAuth(cfg.JWTSecret, os.Getenv("APP_ENV") == "dev")
	h.SetRoutes(r)

	server := &http.Server{
		Addr:         ":" + cfg.WalletPort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
		return
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
