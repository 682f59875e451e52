package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pos-order-service/controllers"
	"pos-order-service/database"
	"pos-order-service/kafka"
	"pos-order-service/models"
	"pos-order-service/repository"
	"pos-order-service/routes"
	"pos-order-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Database ---
	if err := database.Connect(); err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.DB.AutoMigrate(
		&models.Order{},
		&models.Customer{},
		&models.Table{},
		&models.Staff{},
		&models.RegisterSession{},
		&models.CashLog{},
		&models.SyncMutation{},
	); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	// --- Redis (mutation idempotency) ---
	redisClient := database.NewRedisClient(cfg.RedisURL)

	// --- Kafka notification producer ---
	var producer kafka.ProducerAPI
	if cfg.KafkaBrokers != "" {
		p := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer p.Close()
		producer = p
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())

	// Structured HTTP request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- Dependency injection ---
	orderRepo := repository.NewGormOrderRepository(database.DB)
	customerRepo := repository.NewGormCustomerRepository(database.DB)
	tableRepo := repository.NewGormTableRepository(database.DB)
	staffRepo := repository.NewGormStaffRepository(database.DB)
	registerRepo := repository.NewGormRegisterRepository(database.DB)
	syncRepo := repository.NewGormSyncRepository(database.DB)
	idempotency := repository.NewRedisIdempotencyStore(redisClient, 7*24*time.Hour)

	cache := services.NewOrderCache()
	authService := services.NewAuthService(staffRepo, logger)
	orderService := services.NewOrderService(orderRepo, tableRepo, authService, producer, cache, logger)
	amendmentService := services.NewAmendmentService(orderRepo, producer, cache, logger)
	paymentService := services.NewPaymentService(orderRepo, customerRepo, tableRepo, registerRepo, authService, producer, cache, logger)
	registerService := services.NewRegisterService(registerRepo, logger)
	syncService := services.NewSyncService(syncRepo, orderRepo, idempotency, orderService, amendmentService, paymentService, cache, logger)

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	syncService.StartPoller(pollerCtx)

	orderController := controllers.NewOrderController(orderService, amendmentService, paymentService)
	registerController := controllers.NewRegisterController(registerService)
	authController := controllers.NewAuthController(authService)
	syncController := controllers.NewSyncController(syncService)

	routes.RegisterRoutes(r, orderController, registerController, authController, syncController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "pos-order-service"})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Order Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error", zap.Error(err))
	}
	logger.Info("Server shutdown complete")
}
