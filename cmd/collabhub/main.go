package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabhub/internal/api"
	"collabhub/internal/config"
	"collabhub/internal/database"
	"collabhub/internal/gateway"
	"collabhub/internal/poller"
	"collabhub/internal/registry"
	"collabhub/internal/router"
	"collabhub/internal/session"
	pkgdatabase "collabhub/pkg/database"
)

// Application wires every component in dependency order:
// store, verifier, registry, gateway, router, handler, bridge, API, HTTP.
type Application struct {
	config     *config.Config
	store      *database.Manager
	gateway    *gateway.Gateway
	httpServer *http.Server
}

func NewApplication(cfg *config.Config) (*Application, error) {
	store, err := database.NewManager(&pkgdatabase.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  cfg.Database.MaxConnections,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize message store: %w", err)
	}

	verifier := session.NewVerifier(cfg.Session.Secret)

	rooms := registry.New()
	gw := gateway.New(rooms)

	eventRouter := router.New(gw, store)

	settings := gateway.Settings{
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		BufferSize:   cfg.WebSocket.BufferSize,
	}
	wsHandler := gateway.NewHandler(gw, verifier, store, eventRouter, settings)

	bridge := poller.NewWithSchedule(store, verifier,
		cfg.Poller.Interval, cfg.Poller.Lookback, cfg.Poller.Limit)

	apiServer := api.NewServer(store, verifier, gw)

	mux := http.NewServeMux()
	mux.Handle("/api/channels", apiServer)
	mux.Handle("/api/channels/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/api/stream", bridge.HandleStream)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:        cfg.ListenAddr(),
		Handler:     mux,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		// WriteTimeout stays unset: /api/stream holds its response open for
		// the stream's whole lifetime.
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		gateway:    gw,
		httpServer: httpServer,
	}, nil
}

func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting collabhub on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("collabhub started")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts components down in reverse dependency order:
// HTTP, gateway, store.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down collabhub")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	app.gateway.Shutdown()

	if err := app.store.Close(); err != nil {
		log.Printf("Store shutdown error: %v", err)
	}

	log.Printf("collabhub shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	appErrCh := make(chan error, 1)
	go func() {
		if err := app.Start(ctx); err != nil {
			appErrCh <- err
		}
	}()

	select {
	case err := <-appErrCh:
		return fmt.Errorf("application error: %w", err)
	case sig := <-signalCh:
		log.Printf("Received signal %v, shutting down gracefully", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()

		return app.Stop(shutdownCtx)
	}
}
