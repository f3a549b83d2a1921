package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/email"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/lifecycle"
	"github.com/Domenick1991/travelbooking/internal/logger"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zl)
	defer consumer.Close()

	emailSender := email.NewSender(cfg.SMTP, zl)

	go func() {
		if err := consumer.Consume(ctx, consumer.BookingEventHandler(emailSender.Send)); err != nil {
			zl.Error("consumer stopped", zap.Error(err))
		}
	}()

	refundTicker := time.NewTicker(time.Duration(cfg.Worker.RefundSweepSeconds) * time.Second)
	defer refundTicker.Stop()

	zl.Info("worker started",
		zap.String("notifications_topic", cfg.Kafka.NotificationsTopic),
		zap.Int("refund_sweep_seconds", cfg.Worker.RefundSweepSeconds))

	for {
		select {
		case <-refundTicker.C:
			issued, err := bookingService.ProcessPendingRefunds(ctx)
			if err != nil {
				zl.Error("refund sweep", zap.Error(err))
				continue
			}
			if issued > 0 {
				zl.Info("refunds issued", zap.Int("count", issued))
			}
		case <-ctx.Done():
			zl.Info("shutting down worker")
			return
		}
	}
}
