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

	"order-insights/config"
	"order-insights/internal/api"
	"order-insights/internal/broker"
	"order-insights/internal/courier"
	"order-insights/internal/redisclient"
	"order-insights/internal/service"
	"order-insights/internal/store"
	"order-insights/internal/util"
	"order-insights/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Observ.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting order insights service")

	tp, err := util.InitTracer("order-insights", cfg.Observ.JaegerEndpoint, cfg.Observ.TraceSampleRatio)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSignals)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

	publisher := broker.NewSignalPublisher(producer)

	tracker := courier.NewHTTPTracker(courier.Config{
		BaseURL:       cfg.Courier.BaseURL,
		APIKey:        cfg.Courier.APIKey,
		RatePerSecond: cfg.Courier.RatePerSecond,
		CacheTTL:      cfg.Courier.CacheTTL,
	}, redisClient, redisClient)

	orderService := service.NewOrderService(db)
	reportService := service.NewReportService(db, cfg.Business.Location())
	signalService := service.NewSignalService(db)
	trackingService := service.NewTrackingService(db, tracker, publisher, cfg.Business.PollBatchSize)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	signalConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSignals, cfg.Kafka.ConsumerGroup)
	signalWorker := worker.NewSignalWorker(signalConsumer, signalService)
	go func() {
		if err := signalWorker.Start(workerCtx); err != nil {
			logger.Error("Signal worker error", zap.Error(err))
		}
	}()

	pollWorker := worker.NewPollWorker(trackingService, redisClient, cfg.Business.PollInterval)
	go func() {
		if err := pollWorker.Start(workerCtx); err != nil {
			logger.Error("Poll worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, reportService, publisher, map[string]api.ReadinessCheck{
		"postgres": db.Ping,
		"redis":    redisClient.Ping,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := signalWorker.Stop(); err != nil {
		logger.Warn("Error stopping signal worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
