package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/assets"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/cache"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/config"
	h "github.com/Nitinjr812/Waslerrfields-backend/internal/http"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/mail"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/paypal"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/publisher"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/service"
	"github.com/Nitinjr812/Waslerrfields-backend/pkg/logger"
	"github.com/Nitinjr812/Waslerrfields-backend/pkg/metrics"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: cfg.ServiceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx := context.Background()

	db, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		fatal(log, "failed to connect to MongoDB", err)
	}
	log.Info("connected to MongoDB", "db", cfg.MongoDBName)

	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	trackRepo := repository.NewTrackRepository(db)

	if err := cartRepo.CreateIndexes(ctx); err != nil {
		fatal(log, "failed to create cart indexes", err)
	}
	if err := orderRepo.CreateIndexes(ctx); err != nil {
		fatal(log, "failed to create order indexes", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal(log, "redis connection failed", err)
	}
	log.Info("redis ping succeeded")

	signer, err := assets.NewMinioSigner(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		fatal(log, "failed to set up asset signer", err)
	}

	gateway, err := paypal.New(paypal.Config{
		BaseURL:   cfg.PayPalBaseURL,
		ClientID:  cfg.PayPalClientID,
		Secret:    cfg.PayPalSecret,
		Currency:  cfg.Currency,
		ReturnURL: cfg.ReturnURL,
		CancelURL: cfg.CancelURL,
		Timeout:   cfg.GatewayTimeout,
	}, nil, log)
	if err != nil {
		fatal(log, "failed to set up payment gateway", err)
	}

	sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	m := metrics.NewCheckoutMetrics(nil)

	cartService := service.NewCartService(cartRepo, cache.NewRedisCache(redisClient), log)
	fulfillment := service.NewFulfillmentService(trackRepo, signer, cfg.DownloadTTL, m, log)
	notifications := service.NewNotificationService(sender, cfg.Currency, cfg.DownloadTTL, m, log)
	checkout := service.NewCheckoutService(cartService, orderRepo, gateway, fulfillment, notifications, m, log)
	orders := service.NewOrderService(orderRepo)

	router := h.NewRouter(
		h.NewCartHandler(cartService, cfg.RequestTimeout),
		h.NewCheckoutHandler(checkout, cfg.RequestTimeout),
		h.NewOrdersHandler(orders, cfg.RequestTimeout),
		auth.HeaderAuthenticator{},
		cfg.RequestTimeout,
		metrics.Handler(),
	)

	// The order event stream is optional; without brokers the ledger
	// simply accumulates unpublished orders.
	publishCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		writer := publisher.NewWriter(cfg.KafkaBrokers, cfg.OrderTopic)
		defer writer.Close()

		events := publisher.NewOrderEvents(orderRepo, writer, cfg.Currency, cfg.PublishInterval, log)
		go events.Run(publishCtx)
		log.Info("order event publisher started", "topic", cfg.OrderTopic)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	stopPublisher()

	if err := db.Client().Disconnect(ctx); err != nil {
		log.Error("failed to disconnect MongoDB", "error", err)
	}
	log.Info("server exited")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
