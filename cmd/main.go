package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zyphex-tech/realtime-service/config"
	"github.com/zyphex-tech/realtime-service/internal/postgres"
	"github.com/zyphex-tech/realtime-service/internal/security"
	"github.com/zyphex-tech/realtime-service/internal/service"
	httpx "github.com/zyphex-tech/realtime-service/internal/transport/http"
	"github.com/zyphex-tech/realtime-service/internal/transport/ws"
	"github.com/zyphex-tech/realtime-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting realtime-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.PoolConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime(),
		MaxConnIdleTime: cfg.MaxConnIdleTime(),
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(db.Pool)
	projectRepo := postgres.NewProjectRepository(db.Pool)
	channelRepo := postgres.NewChannelRepository(db.Pool)
	messageRepo := postgres.NewMessageRepository(db.Pool)

	// --- credential verification ---
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	verifier := security.NewTokenVerifier(pub, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.ClockSkew())

	// --- services ---
	authSvc := service.NewAuthService(verifier, userRepo)
	accessSvc := service.NewAccessService(userRepo, projectRepo, channelRepo)
	messageSvc := service.NewMessageService(messageRepo, accessSvc)

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, authSvc, accessSvc, messageSvc, ws.Options{
		PingInterval: cfg.PingInterval(),
		StoreTimeout: cfg.StoreTimeout(),
		ReadLimit:    cfg.WS.ReadLimit,
	})

	// --- HTTP ---
	router := httpx.NewRouter(wsServer, hub)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
