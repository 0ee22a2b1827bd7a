package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ArdenN1895/alerts/metrics"
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SubscriptionPruner removes a subscription row whose endpoint the push
// service reported permanently gone.
type SubscriptionPruner interface {
	DeleteByID(id uuid.UUID) error
}

// Dispatcher delivers one canonical payload to many subscriptions
// concurrently. Every subscription is attempted independently: one failure
// never aborts or delays the others, and the wall clock of a call approaches
// a single delivery's latency rather than N of them.
type Dispatcher struct {
	sender Sender
	store  SubscriptionPruner
	log    *zap.Logger
	tracer trace.Tracer
}

func NewDispatcher(sender Sender, store SubscriptionPruner, log *zap.Logger, tracer trace.Tracer) *Dispatcher {
	return &Dispatcher{sender: sender, store: store, log: log, tracer: tracer}
}

// Dispatch fans the payload out to every subscription and reconciles
// failures. Individual delivery failures never escalate: the report always
// comes back with counts, Delivered + Failed == TotalAttempted.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *Payload, subs []models.Subscription, plan Plan, opts *SendOptions) (*DeliveryReport, error) {
	if d.tracer != nil {
		var span trace.Span
		ctx, span = d.tracer.Start(ctx, "push-fanout")
		span.SetAttributes(
			attribute.String("kind", plan.Kind()),
			attribute.Int("subscriptions", len(subs)),
		)
		defer span.End()
	}

	metrics.PushDispatchesTotal.WithLabelValues(plan.Kind()).Inc()

	if len(subs) == 0 {
		// Not an error: a targeted dispatch may name users who never
		// subscribed, and a fresh system has no rows at all.
		message := "No subscribers found in the system"
		if plan.Targeted {
			message = fmt.Sprintf("No subscribers found for specified users: %s", strings.Join(plan.UserIDs, ", "))
		}
		return &DeliveryReport{Kind: plan.Kind(), Message: message}, nil
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	outcomes := make(chan DeliveryOutcome, len(subs))
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.Subscription) {
			defer wg.Done()
			outcomes <- d.attempt(ctx, message, &sub, opts)
		}(sub)
	}
	wg.Wait()
	close(outcomes)

	// Settle-all-then-reduce: outcomes are folded here single-threaded, so
	// the counters cannot lose updates under concurrent completion.
	report := &DeliveryReport{Kind: plan.Kind()}
	for outcome := range outcomes {
		report.TotalAttempted++
		if outcome.Delivered {
			report.Delivered++
		} else {
			report.Failed++
			report.Errors = append(report.Errors, outcome)
		}
	}

	metrics.PushFanoutDuration.WithLabelValues(plan.Kind()).Observe(time.Since(start).Seconds())

	d.log.Info("Fan-out dispatch finished",
		zap.String("kind", plan.Kind()),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.TotalAttempted),
		zap.String("tag", payload.Tag),
	)

	return report, nil
}

func (d *Dispatcher) attempt(ctx context.Context, message []byte, sub *models.Subscription, opts *SendOptions) DeliveryOutcome {
	outcome := DeliveryOutcome{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
	}

	start := time.Now()
	status, err := d.sender.Send(ctx, message, sub, opts)
	outcome.LatencyMs = time.Since(start).Milliseconds()
	metrics.PushSendDuration.WithLabelValues(Urgency(opts.Urgency)).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		outcome.Error = err.Error()
		metrics.PushFailedTotal.WithLabelValues("transient").Inc()

	case status == http.StatusGone || status == http.StatusNotFound:
		// The push service says this registration is permanently dead.
		// Prune the row instead of retrying it on every future broadcast.
		outcome.Error = fmt.Sprintf("endpoint gone (status %d)", status)
		if delErr := d.store.DeleteByID(sub.ID); delErr != nil {
			d.log.Error("Failed to prune gone subscription",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(delErr),
			)
		} else {
			outcome.Removed = true
			metrics.PushSubscriptionsPrunedTotal.Inc()
		}
		metrics.PushFailedTotal.WithLabelValues("gone").Inc()

	case status >= 200 && status < 300:
		outcome.Delivered = true
		metrics.PushDeliveredTotal.Inc()

	default:
		// Transient transport error: recorded, not retried within this
		// dispatch. The next broadcast re-attempts naturally.
		outcome.Error = fmt.Sprintf("push service returned status %d", status)
		metrics.PushFailedTotal.WithLabelValues("transient").Inc()
	}

	if !outcome.Delivered {
		d.log.Warn("Push delivery failed",
			zap.String("user_id", sub.UserID),
			zap.String("error", outcome.Error),
			zap.Bool("removed", outcome.Removed),
		)
	}

	return outcome
}
