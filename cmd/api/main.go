package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/farmbasket/farmbasket-backend/api/routes"
	"github.com/farmbasket/farmbasket-backend/internal/cart"
	"github.com/farmbasket/farmbasket-backend/internal/checkout"
	"github.com/farmbasket/farmbasket-backend/internal/orders"
	"github.com/farmbasket/farmbasket-backend/internal/products"
	stripewebhook "github.com/farmbasket/farmbasket-backend/internal/webhooks/stripe"
	"github.com/farmbasket/farmbasket-backend/pkg/config"
	"github.com/farmbasket/farmbasket-backend/pkg/db"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
	"github.com/farmbasket/farmbasket-backend/pkg/metrics"
	"github.com/farmbasket/farmbasket-backend/pkg/migrate"
	"github.com/farmbasket/farmbasket-backend/pkg/outbox"
	"github.com/farmbasket/farmbasket-backend/pkg/redis"
	"github.com/farmbasket/farmbasket-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := cart.NewNotifier(redisClient, logg)
	changeSub, err := redisClient.Subscribe(ctx, redis.CartChangedChannel)
	if err != nil {
		logg.Error(ctx, "failed to subscribe to cart change channel", err)
		os.Exit(1)
	}
	defer func() {
		if err := changeSub.Close(); err != nil {
			logg.Error(context.Background(), "error closing cart change subscription", err)
		}
	}()
	go cart.NewFanoutBridge(notifier, logg).Run(ctx, changeSub.Channel())

	cartStore, err := cart.NewRedisStore(redisClient, notifier, logg, cartMetrics, cfg.Cart.TTL)
	if err != nil {
		logg.Error(ctx, "failed to build cart store", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productsSvc, err := products.NewService(productsRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create products service", err)
		os.Exit(1)
	}

	cartSvc, err := cart.NewService(cartStore, productsSvc, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersSvc, err := orders.NewService(dbClient, orders.NewRepository(dbClient.DB()), productsRepo, outboxSvc, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkout.NewService(cartSvc, ordersSvc, checkout.NewStripeClient(stripeClient), cfg.Checkout, logg, cartMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders: ordersSvc,
		Carts:  cartSvc,
		Guard:  stripewebhook.NewGuard(redisClient, 0),
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Products:      productsSvc,
			Carts:         cartSvc,
			Checkout:      checkoutSvc,
			Orders:        ordersSvc,
			StripeClient:  stripeClient,
			StripeWebhook: webhookSvc,
			Metrics:       registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if srvErr := <-errCh; srvErr != nil && srvErr != http.ErrServerClosed {
			err = multierr.Append(err, srvErr)
		}
		if err != nil {
			logg.Error(ctx, "api server shutdown error", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
