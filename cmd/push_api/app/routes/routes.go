package routes

import (
	"github.com/ArdenN1895/alerts/cmd/push_api/app/internal/handler"
	"github.com/ArdenN1895/alerts/middlewares"
	"github.com/ArdenN1895/alerts/pkg/config"
	"github.com/ArdenN1895/alerts/pkg/kafka"
	"github.com/ArdenN1895/alerts/pkg/push"
	"github.com/ArdenN1895/alerts/pkg/repositories"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Push(router *gin.RouterGroup, cfg *config.Config, p *kafka.Producer, db *gorm.DB, redisClient *redis.Client, log *zap.Logger, tracer trace.Tracer) {
	subRepo := repositories.NewSubscriptionRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	dispatcher := push.NewDispatcher(push.NewWebPushSender(), subRepo, log, tracer)
	pushHandler := handler.NewPushHandler(dispatcher, subRepo, alertRepo, cfg.Push.Subscriber, cfg.Push.TTL)

	dispatchMiddleware := middlewares.MiddlewareConfig{
		RedisClient: redisClient,
	}

	router.POST("/send", middlewares.DispatchMiddleware(&dispatchMiddleware), pushHandler.Send(log, tracer))
	router.POST("/publish", middlewares.DispatchMiddleware(&dispatchMiddleware), pushHandler.Publish(p, log))
	router.GET("/vapid-key", handler.NewSubscriptionHandler(subRepo).VapidKey())
}

func Subscriptions(router *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	subHandler := handler.NewSubscriptionHandler(repositories.NewSubscriptionRepository(db))

	router.POST("/", subHandler.Subscribe(log))
	router.DELETE("/:user_id", subHandler.Unsubscribe(log))
}
