package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ArdenN1895/alerts/cmd/push_api/app/routes"
	"github.com/ArdenN1895/alerts/logger"
	"github.com/ArdenN1895/alerts/metrics"
	"github.com/ArdenN1895/alerts/middlewares"
	"github.com/ArdenN1895/alerts/pkg/config"
	"github.com/ArdenN1895/alerts/pkg/database"
	"github.com/ArdenN1895/alerts/pkg/kafka"
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/ArdenN1895/alerts/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	logr, err := logger.InitLogger()
	if err != nil {
		panic("Failed to initialize zap logger: " + err.Error())
	}
	defer logr.Sync()

	dsn := os.Getenv("ALERTS_DB")
	db, err := database.InitDB(dsn)
	if err != nil {
		logr.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateDB(db, &models.Subscription{}, &models.Alert{}, &models.DeliveryAttempt{}); err != nil {
		logr.Fatal("Failed to migrate database", zap.Error(err))
	}

	redisClient := database.InitRedis(os.Getenv("REDIS_URL"))

	cfg, err := config.LoadConfig("./config.yaml")
	if err != nil {
		logr.Fatal("Failed to load config", zap.Error(err))
	}

	metrics.InitAPIMetrics()
	metrics.InitPushMetrics()
	metrics.InitKafkaMetrics()

	shutdownTracer := tracing.InitTracer("push_api", logr)
	defer shutdownTracer()
	tracer := otel.Tracer("push_api")

	producer := kafka.NewProducerFromEnv()
	logr.Info("Kafka producer initialized")

	router := gin.Default()
	router.Use(middlewares.GinMetricsMiddleware())
	router.Use(middlewares.CORSMiddleware())
	router.Use(middlewares.NewRateLimiter(rate.Limit(20), 40).Middleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api")
	routes.Push(v1.Group("/push"), cfg, producer, db, redisClient, logr, tracer)
	routes.Subscriptions(v1.Group("/subscriptions"), db, logr)

	go handleShutdown(producer, logr)
	if err := router.Run(":3000"); err != nil {
		logr.Fatal("Failed to start server", zap.Error(err))
	}
}

func handleShutdown(producer *kafka.Producer, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	if err := producer.Close(); err != nil {
		log.Error("Error closing Kafka producer", zap.Error(err))
	} else {
		log.Info("Kafka producer closed cleanly")
	}

	os.Exit(0)
}
