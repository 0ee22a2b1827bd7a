package handler

import (
	"net/http"
	"os"

	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/ArdenN1895/alerts/pkg/push"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubscriptionStore is the write side of the subscription store.
type SubscriptionStore interface {
	Upsert(sub *models.Subscription) error
	DeleteByUserID(userID string) error
}

// SubscribeRequest registers one device under its owning principal.
type SubscribeRequest struct {
	UserID       string                  `json:"user_id" binding:"required"`
	Subscription push.SubscriptionRecord `json:"subscription" binding:"required"`
}

type SubscriptionHandler struct {
	store SubscriptionStore
}

func NewSubscriptionHandler(store SubscriptionStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

// Subscribe upserts the device registration. Re-registering the same user
// replaces the previous endpoint and keys rather than adding a row.
func (h *SubscriptionHandler) Subscribe(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "user_id and subscription are required"})
			return
		}
		if req.Subscription.Endpoint == "" || req.Subscription.Keys.P256dh == "" || req.Subscription.Keys.Auth == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "subscription endpoint and keys are required"})
			return
		}

		sub := &models.Subscription{
			ID:             uuid.New(),
			UserID:         req.UserID,
			Endpoint:       req.Subscription.Endpoint,
			P256dh:         req.Subscription.Keys.P256dh,
			Auth:           req.Subscription.Keys.Auth,
			ExpirationTime: req.Subscription.ExpirationTime,
		}
		if err := h.store.Upsert(sub); err != nil {
			log.Error("Failed to store subscription", zap.String("user_id", req.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store subscription"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Subscription stored"})
	}
}

// Unsubscribe removes the principal's registration.
func (h *SubscriptionHandler) Unsubscribe(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if err := h.store.DeleteByUserID(userID); err != nil {
			log.Error("Failed to delete subscription", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete subscription"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Subscription removed"})
	}
}

// VapidKey exposes the server's public signing key so pages can subscribe.
func (h *SubscriptionHandler) VapidKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		pub := os.Getenv("VAPID_PUBLIC_KEY")
		if pub == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Push notifications not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"public_key": pub})
	}
}
