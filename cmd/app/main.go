package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/api"
	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/lifecycle"
	"github.com/Domenick1991/travelbooking/internal/logger"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/catalog"
	"github.com/Domenick1991/travelbooking/internal/tracing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.Init(cfg.App.Env, cfg.Log.File)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.App.Name, cfg.Observability.OTLPEndpoint)
	if err != nil {
		zl.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zl.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	stores, err := bootstrap.OpenStores(ctx, cfg.Database, zl)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer stores.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.ProductsCacheTTL)*time.Second)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()

	gateway, err := payment.NewGateway(cfg.Payment, zl)
	if err != nil {
		zl.Fatal("init payment gateway", zap.Error(err))
	}

	productService := catalog.NewProductService(stores.Products, redisCache, cfg.Booking.DefaultCurrency, zl)
	bookingService := booking.NewBookingService(
		stores.Bookings,
		stores.Products,
		producer,
		gateway,
		lifecycle.Policy{CancelCutoffDays: cfg.Booking.CancelCutoffDays},
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocker(redisCache),
		booking.WithRefundBatchSize(cfg.Worker.RefundBatchSize),
		booking.WithLogger(zl),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		Bookings:   api.NewBookingHandler(bookingService),
		Products:   api.NewProductHandler(productService),
		Webhooks:   api.NewWebhookHandler(gateway, bookingService, zl),
		JWTSecret:  cfg.Auth.JWTSecret,
		SwaggerDir: cfg.HTTP.SwaggerDir,
		Readiness: map[string]api.ReadinessCheck{
			"database": stores.Ping,
			"redis":    redisCache.Ping,
			"kafka":    producer.CheckConnection,
		},
		Logger: zl,
	})

	if err := bootstrap.Run(ctx, cfg, router, zl); err != nil {
		zl.Error("server error", zap.Error(err))
	}
}
