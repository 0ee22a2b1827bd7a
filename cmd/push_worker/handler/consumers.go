package handler

import (
	"context"
	"encoding/json"

	"github.com/ArdenN1895/alerts/pkg/kafka"
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/ArdenN1895/alerts/pkg/push"
	"github.com/ArdenN1895/alerts/pkg/repositories"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	topicDispatch = "push.dispatch"
	groupID       = "push"
)

// HandleDispatches consumes queued fan-out requests and runs the same
// compose-resolve-dispatch pipeline the synchronous endpoint runs. A bad
// message is logged and skipped, never retried forever.
func HandleDispatches(
	ctx context.Context,
	dispatcher *push.Dispatcher,
	subRepo *repositories.SubscriptionRepository,
	alertRepo *repositories.AlertRepository,
	subscriber string,
	ttl int,
	logr *zap.Logger,
	tracer trace.Tracer,
) {
	c := kafka.NewConsumerFromEnv(topicDispatch, groupID)
	defer c.Close()
	composer := push.NewComposer()

	logr.Info("Starting Kafka consumer", zap.String("topic", topicDispatch), zap.String("group", groupID))

	for {
		select {
		case <-ctx.Done():
			logr.Info("Shutting down dispatch consumer", zap.String("topic", topicDispatch))
			return

		default:
			m, err := c.ReadFromKafka(ctx)
			if err != nil {
				logr.Error("Error reading Kafka message", zap.String("topic", topicDispatch), zap.Error(err))
				continue
			}

			msgCtx := ctx
			if len(m.Headers) > 0 {
				carrier := make(map[string]string)
				for _, h := range m.Headers {
					carrier[h.Key] = string(h.Value)
				}
				msgCtx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(carrier))
			}
			dispatchCtx, span := tracer.Start(msgCtx, "handle-dispatch")

			func() {
				defer span.End()

				var req push.NotificationRequest
				if err := json.Unmarshal(m.Value, &req); err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, "failed to unmarshal dispatch request")
					logr.Error("Failed to unmarshal dispatch request",
						zap.ByteString("raw", m.Value),
						zap.Error(err),
					)
					return
				}

				payload, plan, err := composer.Compose(&req)
				if err != nil {
					span.RecordError(err)
					logr.Error("Rejected queued dispatch", zap.Error(err))
					return
				}

				pub, priv, err := push.VAPIDKeysFromEnv()
				if err != nil {
					span.RecordError(err)
					logr.Error("Dropping dispatch, VAPID keys missing", zap.Error(err))
					return
				}

				var subs []models.Subscription
				if plan.Targeted {
					subs, err = subRepo.ListByUserIDs(plan.UserIDs)
				} else {
					subs, err = subRepo.ListAll()
				}
				if err != nil {
					span.RecordError(err)
					logr.Error("Failed to load subscriptions", zap.Error(err))
					return
				}

				opts := &push.SendOptions{
					TTL:             ttl,
					Urgency:         push.Urgency(req.Urgency),
					Subscriber:      subscriber,
					VAPIDPublicKey:  pub,
					VAPIDPrivateKey: priv,
				}

				report, err := dispatcher.Dispatch(dispatchCtx, payload, subs, plan, opts)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, "fan-out failed")
					logr.Error("Fan-out dispatch failed", zap.Error(err))
					return
				}

				recordAlert(alertRepo, payload, opts, report, logr)
			}()
		}
	}
}

func recordAlert(alertRepo *repositories.AlertRepository, payload *push.Payload, opts *push.SendOptions, report *push.DeliveryReport, logr *zap.Logger) {
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
	if err := alertRepo.Create(alert); err != nil {
		logr.Warn("Failed to record alert", zap.Error(err))
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
		if err := alertRepo.CreateAttempt(attempt); err != nil {
			logr.Warn("Failed to record delivery attempt", zap.Error(err))
		}
	}
}
