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
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	config "github.com/romcheg/offline-cards/configs"
	"github.com/romcheg/offline-cards/internal/comm"
	"github.com/romcheg/offline-cards/internal/nats"
	"github.com/romcheg/offline-cards/internal/notifysvc/broker"
	"github.com/romcheg/offline-cards/internal/notifysvc/handlers"
	"github.com/romcheg/offline-cards/internal/notifysvc/routes"
	"github.com/romcheg/offline-cards/internal/notifysvc/ws"
	walletcfg "github.com/romcheg/offline-cards/internal/walletsvc/config"
)

const SERVICE_NAME = "notify"

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

	// Connect to NATS
	n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	s := ws.NewWs()
	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	routes.SetRoutes(r, handlers.NewHandler(s, cfg.NotifyPort), tokenAuth)

	b := broker.NewBroker(n.Conn, s.Broadcast)
	sub, err := b.Subscribe(comm.CardsSubject)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %s %v", comm.CardsSubject, err)
	}

	// only header timeouts: websocket connections are long-lived
	server := &http.Server{
		Addr:              ":" + cfg.NotifyPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := sub.Unsubscribe(); err != nil {
		log.Warnf("unsubscribe %s: %v", comm.CardsSubject, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
		return
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
