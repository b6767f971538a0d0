package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-api/auth"
	"shop-api/cache"
	"shop-api/config"
	"shop-api/database"
	"shop-api/enrich"
	"shop-api/events"
	"shop-api/handlers"
	"shop-api/middleware"
	"shop-api/pricing"
	"shop-api/store"
	"shop-api/weather"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize database
	db, err := database.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis (optional; product reads fall back to the database)
	var redisClient *redis.Client
	if rc, err := cache.InitRedis(cfg, logger); err != nil {
		logger.Warn("Redis unavailable, continuing without product cache", zap.Error(err))
	} else {
		redisClient = rc
		defer redisClient.Close()
	}

	// Initialize Kafka producer (optional; lifecycle events are skipped without it)
	var producer sarama.SyncProducer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.InitProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Warn("Kafka unavailable, continuing without entity events", zap.Error(err))
		} else {
			producer = p
			defer producer.Close()
		}
	}

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("shop-api", cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	// Stores and domain services
	users := store.NewUserStore(db)
	products := store.NewProductStore(db)
	orders := store.NewOrderStore(db)
	pricer := pricing.NewEngine(products)
	enricher := enrich.New(users, products)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	weatherClient := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherTimeout, logger)

	// Handlers
	userHandler := handlers.NewUserHandler(users, tokens, logger)
	productHandler := handlers.NewProductHandler(products, redisClient, logger)
	orderHandler := handlers.NewOrderHandler(orders, pricer, enricher, producer, cfg.KafkaTopic, logger)
	weatherHandler := handlers.NewWeatherHandler(weatherClient, logger)

	// Setup REST API with Gin
	router := gin.New()
	router.Use(gin.Recovery())
	// OpenTelemetry middleware must be first to extract trace context
	router.Use(otelgin.Middleware("shop-api"))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler())

	api := router.Group("/api")

	user := api.Group("/user")
	user.POST("/create", userHandler.Create)
	user.POST("/login", userHandler.Login)
	user.POST("/validate-token", userHandler.ValidateToken)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthMiddleware(tokens))
	userAuth.POST("/logout", userHandler.Logout)
	userAuth.PUT("/update/:id", userHandler.Update)
	userAuth.DELETE("/delete/:id", userHandler.Delete)
	userAuth.GET("/getbyid/:id", userHandler.GetByID)
	userAuth.GET("/getall", userHandler.GetAll)

	product := api.Group("/product")
	product.Use(middleware.AuthMiddleware(tokens))
	product.POST("/create", productHandler.Create)
	product.PUT("/update/:id", productHandler.Update)
	product.DELETE("/delete/:id", productHandler.Delete)
	product.GET("/getbyid/:id", productHandler.GetByID)
	product.GET("/getall", productHandler.GetAll)

	order := api.Group("/order")
	order.Use(middleware.AuthMiddleware(tokens))
	order.POST("/create", orderHandler.Create)
	order.PUT("/update/:id", orderHandler.Update)
	order.DELETE("/delete/:id", orderHandler.Delete)
	order.GET("/getbyid/:id", orderHandler.GetByID)
	order.GET("/getall", orderHandler.GetAll)

	api.GET("/weather/current", weatherHandler.Current)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Shop API started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
