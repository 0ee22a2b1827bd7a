package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ArdenN1895/alerts/cmd/push_worker/handler"
	"github.com/ArdenN1895/alerts/logger"
	"github.com/ArdenN1895/alerts/metrics"
	"github.com/ArdenN1895/alerts/middlewares"
	"github.com/ArdenN1895/alerts/pkg/config"
	"github.com/ArdenN1895/alerts/pkg/database"
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/ArdenN1895/alerts/pkg/push"
	"github.com/ArdenN1895/alerts/pkg/repositories"
	"github.com/ArdenN1895/alerts/tracing"
)

func main() {
	_ = godotenv.Load()

	logr, err := logger.InitLogger()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
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

	cfg, err := config.LoadConfig("./config.yaml")
	if err != nil {
		logr.Fatal("Failed to load config", zap.Error(err))
	}

	metrics.InitAPIMetrics()
	metrics.InitPushMetrics()
	metrics.InitKafkaMetrics()

	shutdownTracer := tracing.InitTracer("push_worker", logr)
	defer shutdownTracer()
	tracer := otel.Tracer("push_worker")

	subRepo := repositories.NewSubscriptionRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	dispatcher := push.NewDispatcher(push.NewWebPushSender(), subRepo, logr, tracer)

	logr.Info("Starting push worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.HandleDispatches(ctx, dispatcher, subRepo, alertRepo, cfg.Push.Subscriber, cfg.Push.TTL, logr, tracer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	wrappedMux := middlewares.MetricsMiddleware(mux)
	if err := http.ListenAndServe(":3001", wrappedMux); err != nil {
		logr.Fatal("metrics server failed", zap.Error(err))
	}
}
