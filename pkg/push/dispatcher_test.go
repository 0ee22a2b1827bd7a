package push

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu    sync.Mutex
	calls int
	// send decides the outcome per subscription
	send func(sub *models.Subscription) (int, error)
	// delay simulates a slow push service
	delay time.Duration
}

func (f *fakeSender) Send(ctx context.Context, message []byte, sub *models.Subscription, opts *SendOptions) (int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.send != nil {
		return f.send(sub)
	}
	return http.StatusCreated, nil
}

type fakePruner struct {
	mu      sync.Mutex
	deleted []uuid.UUID
	err     error
}

func (f *fakePruner) DeleteByID(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func testSubs(n int) []models.Subscription {
	subs := make([]models.Subscription, n)
	for i := range subs {
		subs[i] = models.Subscription{
			ID:       uuid.New(),
			UserID:   uuid.NewString(),
			Endpoint: "https://push.example/" + uuid.NewString(),
			P256dh:   "key",
			Auth:     "secret",
		}
	}
	return subs
}

func testOpts() *SendOptions {
	return &SendOptions{TTL: DefaultTTL, Urgency: UrgencyNormal}
}

func TestDispatchCountsInvariant(t *testing.T) {
	sender := &fakeSender{send: func(sub *models.Subscription) (int, error) {
		if sub.UserID[0]%2 == 0 {
			return http.StatusInternalServerError, nil
		}
		return http.StatusCreated, nil
	}}
	d := NewDispatcher(sender, &fakePruner{}, zap.NewNop(), nil)

	subs := testSubs(20)
	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, subs, Plan{}, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Delivered+report.Failed != report.TotalAttempted {
		t.Errorf("delivered(%d) + failed(%d) != attempted(%d)", report.Delivered, report.Failed, report.TotalAttempted)
	}
	if report.TotalAttempted != 20 {
		t.Errorf("expected 20 attempts, got %d", report.TotalAttempted)
	}
	if len(report.Errors) != report.Failed {
		t.Errorf("expected %d error details, got %d", report.Failed, len(report.Errors))
	}
}

func TestDispatchRunsConcurrently(t *testing.T) {
	// 50 slow deliveries must cost about one delivery's latency, not 50x.
	perSend := 50 * time.Millisecond
	sender := &fakeSender{delay: perSend}
	d := NewDispatcher(sender, &fakePruner{}, zap.NewNop(), nil)

	start := time.Now()
	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, testSubs(50), Plan{}, testOpts())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Delivered != 50 {
		t.Errorf("expected 50 delivered, got %d", report.Delivered)
	}
	if elapsed > 10*perSend {
		t.Errorf("dispatch took %v, looks sequential (one delivery is %v)", elapsed, perSend)
	}
}

func TestDispatchPrunesGoneSubscriptions(t *testing.T) {
	subs := testSubs(3)
	gone := subs[1].ID
	sender := &fakeSender{send: func(sub *models.Subscription) (int, error) {
		if sub.ID == gone {
			return http.StatusGone, nil
		}
		return http.StatusCreated, nil
	}}
	pruner := &fakePruner{}
	d := NewDispatcher(sender, pruner, zap.NewNop(), nil)

	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, subs, Plan{}, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Delivered != 2 || report.Failed != 1 {
		t.Errorf("expected 2 delivered / 1 failed, got %d / %d", report.Delivered, report.Failed)
	}
	if len(pruner.deleted) != 1 || pruner.deleted[0] != gone {
		t.Errorf("expected gone subscription %s pruned, got %v", gone, pruner.deleted)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 error detail, got %d", len(report.Errors))
	}
	if !report.Errors[0].Removed {
		t.Error("expected removed=true on the gone outcome")
	}
	if report.Errors[0].SubscriptionID != gone {
		t.Errorf("error detail names wrong subscription: %s", report.Errors[0].SubscriptionID)
	}
}

func TestDispatchTransientFailureIsNotRemoved(t *testing.T) {
	subs := testSubs(2)
	sender := &fakeSender{send: func(sub *models.Subscription) (int, error) {
		if sub.ID == subs[0].ID {
			return http.StatusTooManyRequests, nil
		}
		return http.StatusCreated, nil
	}}
	pruner := &fakePruner{}
	d := NewDispatcher(sender, pruner, zap.NewNop(), nil)

	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, subs, Plan{}, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", report.Failed)
	}
	if len(pruner.deleted) != 0 {
		t.Errorf("transient failure must not prune the row, deleted %v", pruner.deleted)
	}
	if report.Errors[0].Removed {
		t.Error("expected removed=false on a transient failure")
	}
}

func TestDispatchNoSubscribersBroadcast(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, &fakePruner{}, zap.NewNop(), nil)

	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, nil, Plan{}, testOpts())
	if err != nil {
		t.Fatalf("zero subscriptions must not be an error: %v", err)
	}
	if report.Delivered != 0 || report.Failed != 0 || report.TotalAttempted != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if report.Message != "No subscribers found in the system" {
		t.Errorf("unexpected message: %q", report.Message)
	}
	if sender.calls != 0 {
		t.Errorf("expected no delivery attempts, got %d", sender.calls)
	}
}

func TestDispatchNoSubscribersTargeted(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, &fakePruner{}, zap.NewNop(), nil)

	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, nil, Plan{Targeted: true, UserIDs: []string{"u1"}}, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(report.Message, "No subscribers found for specified users") {
		t.Errorf("unexpected message: %q", report.Message)
	}
	if !strings.Contains(report.Message, "u1") {
		t.Errorf("message should name the targeted users: %q", report.Message)
	}
	if report.Kind != "targeted" {
		t.Errorf("expected kind targeted, got %q", report.Kind)
	}
}

func TestDispatchBroadcastWithExpiredEndpoint(t *testing.T) {
	// Flood alert scenario: 3 subscriptions, one endpoint expired.
	subs := testSubs(3)
	expired := subs[2].ID
	sender := &fakeSender{send: func(sub *models.Subscription) (int, error) {
		if sub.ID == expired {
			return http.StatusNotFound, nil
		}
		return http.StatusCreated, nil
	}}
	pruner := &fakePruner{}
	d := NewDispatcher(sender, pruner, zap.NewNop(), nil)

	payload := &Payload{Title: "Flood Alert", Body: "Rising water", Tag: "t"}
	report, err := d.Dispatch(context.Background(), payload, subs, Plan{}, &SendOptions{TTL: DefaultTTL, Urgency: UrgencyHigh})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Delivered != 2 || report.Failed != 1 || report.TotalAttempted != 3 {
		t.Errorf("expected 2/1/3, got %d/%d/%d", report.Delivered, report.Failed, report.TotalAttempted)
	}
	if report.Kind != "broadcast" {
		t.Errorf("expected broadcast, got %q", report.Kind)
	}
	if len(pruner.deleted) != 1 || pruner.deleted[0] != expired {
		t.Errorf("expected expired row removed, got %v", pruner.deleted)
	}
}

func TestDispatchPruneFailureKeepsRemovedFalse(t *testing.T) {
	subs := testSubs(1)
	sender := &fakeSender{send: func(sub *models.Subscription) (int, error) {
		return http.StatusGone, nil
	}}
	pruner := &fakePruner{err: context.DeadlineExceeded}
	d := NewDispatcher(sender, pruner, zap.NewNop(), nil)

	report, err := d.Dispatch(context.Background(), &Payload{Tag: "t"}, subs, Plan{}, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Errors[0].Removed {
		t.Error("removed must be false when the store delete fails")
	}
}
