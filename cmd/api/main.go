package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logger"
	"storefront/internal/payment/razorpay"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	sessionrepo "storefront/internal/repository/session"
	userrepo "storefront/internal/repository/user"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
)

func main() {
	cfg := config.FromEnv()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		zlog.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zlog.Fatal("parse redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	productRepo := productrepo.NewPostgres(dbpool, zlog)
	orderRepo := orderrepo.NewPostgres(dbpool, zlog)
	userRepo := userrepo.NewPostgres(dbpool)
	sessionRepo := sessionrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewRedis(redisClient, cfg.CartTTL)

	gateway := razorpay.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, zlog)

	authService := authsvc.New(userRepo, sessionRepo)
	catalogService := catalogsvc.New(productRepo)
	cartService := cartsvc.New(cartRepo, productRepo)
	checkoutService := checkoutsvc.New(orderRepo, productRepo, gateway, cartService, zlog)
	orderService := ordersvc.New(orderRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, zlog, dbpool, httpserver.Deps{
		AuthSvc:     authService,
		CatalogSvc:  catalogService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		OrderSvc:    orderService,
	})
	if err != nil {
		zlog.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		zlog.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zlog.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	} else {
		zlog.Info("server stopped")
	}
}
