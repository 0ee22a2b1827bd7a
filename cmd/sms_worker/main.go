package main

import (
	"context"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ArdenN1895/alerts/cmd/sms_worker/service"
	"github.com/ArdenN1895/alerts/logger"
	"github.com/ArdenN1895/alerts/metrics"
	"github.com/ArdenN1895/alerts/middlewares"
	"github.com/ArdenN1895/alerts/pkg/config"
)

func main() {
	_ = godotenv.Load()

	logr, err := logger.InitLogger()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logr.Sync()

	metrics.InitAPIMetrics()
	metrics.InitSMSMetrics()
	metrics.InitKafkaMetrics()

	cfg, err := config.LoadConfig("./config.yaml")
	if err != nil {
		logr.Fatal("Failed to load config", zap.Error(err))
	}
	sender, err := config.BuildSMSSender(cfg)
	if err != nil {
		logr.Fatal("Failed to init SMS sender", zap.Error(err))
	}
	logr.Info("SMS sender initialized", zap.String("provider", cfg.SMS.Provider))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.HandleSOS(ctx, sender, logr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	wrappedMux := middlewares.MetricsMiddleware(mux)
	if err := http.ListenAndServe(":3003", wrappedMux); err != nil {
		logr.Fatal("metrics server failed", zap.Error(err))
	}
}
