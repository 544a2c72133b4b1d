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

	"smarteventscape/config"
	"smarteventscape/internal/api"
	"smarteventscape/internal/broker"
	"smarteventscape/internal/redisclient"
	"smarteventscape/internal/service"
	"smarteventscape/internal/store"
	"smarteventscape/internal/util"
	"smarteventscape/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting event booking service")

	tp, err := util.InitTracer("smarteventscape", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicBookings)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	eventService := service.NewEventService(db, eventPublisher, cfg.Business)
	paymentService := service.NewPaymentService(cfg.Business.PaymentSuccessRate)
	bookingService := service.NewBookingService(db, redisClient, paymentService, eventPublisher, cfg.Business)
	checkoutService := service.NewCheckoutService(redisClient, eventService, bookingService, cfg.Business)
	confirmationService := service.NewConfirmationService()
	authService := service.NewAuthService(db, cfg.Auth)

	ctx := context.Background()
	if err := worker.SyncSeatsToRedis(ctx, db, redisClient); err != nil {
		log.Printf("Failed to sync seat counters to Redis: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	bookingConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicBookings, cfg.Kafka.ConsumerGroup)
	bookingWorker := worker.NewBookingWorker(bookingConsumer, db, redisClient, confirmationService)
	go func() {
		if err := bookingWorker.Start(workerCtx); err != nil {
			log.Printf("Booking worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(eventService, checkoutService, confirmationService, authService, db, cfg.Auth.JWTSecret)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	bookingWorker.Stop()

	log.Println("Server exited")
}
