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

	"github.com/unitydai0310-hub/exchange-diary/config"
	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/push"
	"github.com/unitydai0310-hub/exchange-diary/internal/service"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
	httpx "github.com/unitydai0310-hub/exchange-diary/internal/transport/http"
	"github.com/unitydai0310-hub/exchange-diary/internal/transport/stream"
	"github.com/unitydai0310-hub/exchange-diary/pkg/logger"
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
	slog.Info("starting diary-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version,
		"storage", cfg.Storage.Backend)

	// --- storage ---
	ctx := context.Background()
	roomStore, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore()

	// --- core components ---
	codec := auth.NewCodec(cfg.Auth.Secret)
	notifier := push.NewNotifier(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.VAPIDSubject)
	if !notifier.Enabled() {
		slog.Warn("web push disabled, VAPID keys not configured")
	}

	hub := stream.NewHub()
	streamServer := stream.NewServer(hub, codec, roomStore)

	// --- services ---
	roomSvc := service.NewRoomService(roomStore, codec)
	entrySvc := service.NewEntryService(roomStore, hub, notifier)
	lotterySvc := service.NewLotteryService(roomStore, hub, notifier)
	subSvc := service.NewSubscriptionService(roomStore)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, entrySvc, lotterySvc, subSvc, notifier)
	router := httpx.NewRouter(handler, codec, streamServer)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no WriteTimeout: the SSE stream is held open indefinitely
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

	hub.Shutdown()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}

func newStore(ctx context.Context, cfg *config.Config) (store.RoomStore, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		s, err := store.NewRedisStore(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return store.NewFileStore(cfg.Storage.FilePath), func() {}, nil
	}
}
