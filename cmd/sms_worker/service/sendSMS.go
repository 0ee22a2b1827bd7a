package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/ArdenN1895/alerts/metrics"
	"github.com/ArdenN1895/alerts/pkg/kafka"
	"github.com/ArdenN1895/alerts/pkg/sms"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const maxRetries = 3

const (
	topicSOS = "sos.sms"
	groupID  = "sms"
)

// SOSMessage is one queued emergency text: a raw recipient number as entered
// on the profile form plus the composed alert text.
type SOSMessage struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// HandleSOS consumes queued SOS texts, normalizes the recipient to E.164 and
// sends through the configured provider. An unparseable number is dropped
// with a log line; there is nobody to bounce it back to.
func HandleSOS(ctx context.Context, smsService sms.Sender, logger *zap.Logger) {
	c := kafka.NewConsumerFromEnv(topicSOS, groupID)
	defer c.Close()

	logger.Info("Starting Kafka consumer", zap.String("topic", topicSOS), zap.String("group", groupID))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down SOS consumer", zap.String("topic", topicSOS))
			return

		default:
			m, err := c.ReadFromKafka(ctx)
			if err != nil {
				logger.Error("Error reading Kafka message", zap.String("topic", topicSOS), zap.Error(err))
				continue
			}

			var msg SOSMessage
			if err := json.Unmarshal(m.Value, &msg); err != nil {
				logger.Error("Failed to unmarshal SOS message",
					zap.ByteString("raw", m.Value),
					zap.Error(err),
				)
				continue
			}

			to, err := sms.Normalize(msg.To)
			if err != nil {
				logger.Error("Dropping SOS text with invalid recipient",
					zap.String("to", msg.To),
					zap.Error(err),
				)
				continue
			}

			logger.Info("Kafka message received",
				zap.String("topic", topicSOS),
				zap.ByteString("key", m.Key),
				zap.Int64("offset", m.Offset),
			)

			text := sms.NewSMS(to, msg.Message, sms.WithIdempotencyKey(string(m.Key)))
			SendSMSWithRetry(logger, smsService, text)
		}
	}
}

// SendSMSWithRetry attempts the send with jittered exponential backoff before
// giving up. SOS texts matter enough to retry, but an unreachable provider
// must not wedge the consumer forever.
func SendSMSWithRetry(logger *zap.Logger, smsService sms.Sender, text sms.SMS) error {
	timer := prometheus.NewTimer(metrics.SMSSendDuration.WithLabelValues("twilio"))
	defer timer.ObserveDuration()

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smsService.Send(text)
		if err == nil {
			metrics.ExternalAPISuccessTotal.WithLabelValues("twilio", "sms_worker").Inc()
			return nil
		}

		metrics.SMSRetriesTotal.WithLabelValues("provider_error").Inc()
		backoffDelay := time.Second * time.Duration(1<<(attempt-1))
		jitter := time.Duration(rand.Intn(1000)) * time.Millisecond
		waitTime := backoffDelay + jitter
		logger.Warn("SMS send attempt failed, will retry",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", waitTime),
			zap.Error(err),
		)

		time.Sleep(waitTime)
	}

	err := fmt.Errorf("SOS SMS failed after %d retries", maxRetries)
	metrics.ExternalAPIFailureTotal.WithLabelValues("twilio", "sms_worker").Inc()
	logger.Error("Final SMS send failure",
		zap.String("to", text.To),
		zap.Error(err),
	)
	return err
}
