package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ArdenN1895/alerts/pkg/kafka"
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/ArdenN1895/alerts/pkg/push"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TopicDispatch carries queued fan-out requests to the push worker.
const TopicDispatch = "push.dispatch"

// SubscriptionSource is the read side of the subscription store.
type SubscriptionSource interface {
	ListAll() ([]models.Subscription, error)
	ListByUserIDs(userIDs []string) ([]models.Subscription, error)
}

// AlertRecorder persists the audit trail of a dispatch. Recording is
// best-effort and never fails the request.
type AlertRecorder interface {
	Create(alert *models.Alert) error
	CreateAttempt(attempt *models.DeliveryAttempt) error
}

// SendResponse is the fan-out result returned to the caller.
type SendResponse struct {
	Success            bool                   `json:"success"`
	DeliveredTo        int                    `json:"delivered_to"`
	Failed             int                    `json:"failed"`
	TotalSubscriptions int                    `json:"total_subscriptions"`
	NotificationType   string                 `json:"notification_type"`
	TargetedUsers      []string               `json:"targeted_users"`
	Message            string                 `json:"message,omitempty"`
	Errors             []push.DeliveryOutcome `json:"errors,omitempty"`
}

type PushHandler struct {
	composer   *push.Composer
	dispatcher *push.Dispatcher
	subs       SubscriptionSource
	alerts     AlertRecorder
	subscriber string
	ttl        int
}

func NewPushHandler(dispatcher *push.Dispatcher, subs SubscriptionSource, alerts AlertRecorder, subscriber string, ttl int) *PushHandler {
	return &PushHandler{
		composer:   push.NewComposer(),
		dispatcher: dispatcher,
		subs:       subs,
		alerts:     alerts,
		subscriber: subscriber,
		ttl:        ttl,
	}
}

// Send runs one synchronous fan-out: validate, resolve the audience, deliver
// to every subscription concurrently, and report the counts. Validation and
// configuration problems reject the call before anything is read from the
// store or sent.
func (h *PushHandler) Send(log *zap.Logger, tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req push.NotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "title and body are required"})
			return
		}

		payload, plan, err := h.composer.Compose(&req)
		if err != nil {
			var verr *push.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		pub, priv, err := push.VAPIDKeysFromEnv()
		if err != nil {
			log.Error("Push dispatch rejected, VAPID keys missing", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Push notifications not configured", "type": "configuration"})
			return
		}

		subs, err := h.audience(plan)
		if err != nil {
			log.Error("Failed to load subscriptions", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load subscriptions", "type": "store"})
			return
		}

		opts := &push.SendOptions{
			TTL:             h.ttl,
			Urgency:         push.Urgency(req.Urgency),
			Subscriber:      h.subscriber,
			VAPIDPublicKey:  pub,
			VAPIDPrivateKey: priv,
		}

		report, err := h.dispatcher.Dispatch(c.Request.Context(), payload, subs, plan, opts)
		if err != nil {
			log.Error("Fan-out dispatch failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send notifications"})
			return
		}

		h.record(log, payload, plan, opts, report)

		c.JSON(http.StatusOK, SendResponse{
			Success:            true,
			DeliveredTo:        report.Delivered,
			Failed:             report.Failed,
			TotalSubscriptions: report.TotalAttempted,
			NotificationType:   report.Kind,
			TargetedUsers:      plan.UserIDs,
			Message:            report.Message,
			Errors:             report.Errors,
		})
	}
}

// Publish validates the request and queues it on Kafka for the push worker
// instead of fanning out inline. Large broadcasts go this way so the HTTP
// call returns immediately.
func (h *PushHandler) Publish(p *kafka.Producer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req push.NotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "title and body are required"})
			return
		}
		if _, _, err := h.composer.Compose(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		body, err := json.Marshal(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to encode request"})
			return
		}

		key := uuid.New()
		if err := p.Publish(c.Request.Context(), TopicDispatch, key[:], body); err != nil {
			log.Error("Failed to queue dispatch", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to queue notification"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"success":     true,
			"message":     "Alert queued for delivery",
			"dispatch_id": key.String(),
		})
	}
}

func (h *PushHandler) audience(plan push.Plan) ([]models.Subscription, error) {
	if plan.Targeted {
		subs, err := h.subs.ListByUserIDs(plan.UserIDs)
		if err != nil {
			return nil, &push.StoreError{Op: "list subscriptions by user", Err: err}
		}
		return subs, nil
	}
	subs, err := h.subs.ListAll()
	if err != nil {
		return nil, &push.StoreError{Op: "list subscriptions", Err: err}
	}
	return subs, nil
}

func (h *PushHandler) record(log *zap.Logger, payload *push.Payload, plan push.Plan, opts *push.SendOptions, report *push.DeliveryReport) {
	alert := &models.Alert{
		ID:             uuid.New(),
		Title:          payload.Title,
		Kind:           report.Kind,
		Urgency:        opts.Urgency,
		Tag:            payload.Tag,
		Delivered:      report.Delivered,
		Failed:         report.Failed,
		TotalAttempted: report.TotalAttempted,
	}
	if err := h.alerts.Create(alert); err != nil {
		log.Warn("Failed to record alert", zap.Error(err))
		return
	}
	for _, outcome := range report.Errors {
		attempt := &models.DeliveryAttempt{
			AlertID:        alert.ID,
			SubscriptionID: outcome.SubscriptionID,
			UserID:         outcome.UserID,
			Error:          outcome.Error,
			Removed:        outcome.Removed,
			LatencyMs:      outcome.LatencyMs,
		}
		if err := h.alerts.CreateAttempt(attempt); err != nil {
			log.Warn("Failed to record delivery attempt", zap.Error(err))
		}
	}
}
