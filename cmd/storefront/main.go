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

	"github.com/phonehub/storefront/internal/checkout"
	"github.com/phonehub/storefront/internal/checkout/attemptlog/sqlite"
	"github.com/phonehub/storefront/internal/pkg/cache"
	"github.com/phonehub/storefront/internal/pkg/config"
	"github.com/phonehub/storefront/internal/pkg/telemetry"
	"github.com/phonehub/storefront/internal/storefront/core/cart"
	"github.com/phonehub/storefront/internal/storefront/infra/httpx"
	"github.com/phonehub/storefront/internal/storefront/infra/remote"
)

func main() {
	cfg := config.MustLoad()

	telemetry.InitLogger()

	shutdownTracer, err := telemetry.SetupTracer(context.Background(), "storefront")
	if err != nil {
		log.Fatalf("tracer setup failed: %v", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	cartStore := remote.NewCartStore(client)
	orderGateway := remote.NewOrderGateway(client)

	notifier := httpx.ContextNotifier{}
	cartCtrl := cart.NewController(cartStore, notifier)

	attemptRepo, err := sqlite.Open(cfg.Checkout.AttemptLogPath)
	if err != nil {
		log.Fatalf("attempt log open failed: %v", err)
	}
	defer attemptRepo.Close()

	idem := cache.NewRedisCache(cfg.Redis.Addr, "storefront")

	flow := checkout.NewFlow(orderGateway, cartCtrl, notifier,
		checkout.WithAttemptLog(attemptRepo),
		checkout.WithIdempotency(idem, cfg.Checkout.IdempotencyTTL),
		checkout.WithClearBudget(cfg.Checkout.ClearBudget),
	)

	handler := httpx.NewHandler(cartCtrl, flow, orderGateway)
	router := httpx.NewRouter(handler)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		slog.Info("storefront gateway listening", "addr", cfg.HTTP.Addr, "remote", cfg.Remote.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
