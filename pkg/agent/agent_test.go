package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ArdenN1895/alerts/pkg/push"
	"go.uber.org/zap"
)

type fakeWindow struct {
	url       string
	focused   int
	navigated []string
	messages  []Message
	focusErr  error
}

func (w *fakeWindow) URL() string { return w.url }

func (w *fakeWindow) Focus(ctx context.Context) error {
	if w.focusErr != nil {
		return w.focusErr
	}
	w.focused++
	return nil
}

func (w *fakeWindow) Navigate(ctx context.Context, url string) error {
	w.navigated = append(w.navigated, url)
	return nil
}

func (w *fakeWindow) PostMessage(ctx context.Context, msg Message) error {
	w.messages = append(w.messages, msg)
	return nil
}

type fakeHost struct {
	shown       []string // titles, in display order
	shownOpts   []NotificationOptions
	showErrs    []error // consumed per call
	windows     []*fakeWindow
	windowsErr  error
	opened      []string
	resub       *push.SubscriptionRecord
	resubErr    error
	fetched     []string
	skipWaiting int
	claimed     int
}

func (h *fakeHost) ShowNotification(ctx context.Context, title string, opts NotificationOptions) error {
	if len(h.showErrs) > 0 {
		err := h.showErrs[0]
		h.showErrs = h.showErrs[1:]
		if err != nil {
			return err
		}
	}
	h.shown = append(h.shown, title)
	h.shownOpts = append(h.shownOpts, opts)
	return nil
}

func (h *fakeHost) Windows(ctx context.Context) ([]Window, error) {
	if h.windowsErr != nil {
		return nil, h.windowsErr
	}
	wins := make([]Window, len(h.windows))
	for i, w := range h.windows {
		wins[i] = w
	}
	return wins, nil
}

func (h *fakeHost) OpenWindow(ctx context.Context, url string) error {
	h.opened = append(h.opened, url)
	return nil
}

func (h *fakeHost) Resubscribe(ctx context.Context, serverKey string) (*push.SubscriptionRecord, error) {
	if h.resubErr != nil {
		return nil, h.resubErr
	}
	return h.resub, nil
}

func (h *fakeHost) SkipWaiting() { h.skipWaiting++ }

func (h *fakeHost) ClaimClients(ctx context.Context) error {
	h.claimed++
	return nil
}

func (h *fakeHost) Fetch(ctx context.Context, url string) error {
	h.fetched = append(h.fetched, url)
	return nil
}

func (h *fakeHost) Origin() string { return "https://alerts.example" }

func newTestAgent(host *fakeHost) *Agent {
	return New(Config{Version: "spc-alerts-v12", AppName: "SPC Alerts", ServerKey: "server-key"}, host, zap.NewNop())
}

func TestPushShowsFallbackOnUnparseablePayload(t *testing.T) {
	host := &fakeHost{}
	a := newTestAgent(host)

	if err := a.HandlePush(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.shown) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(host.shown))
	}
	if host.shown[0] != "SPC Alerts" {
		t.Errorf("expected fallback title, got %q", host.shown[0])
	}
	if host.shownOpts[0].Body == "" {
		t.Error("fallback notification must carry a body")
	}
}

func TestPushShowsParsedPayload(t *testing.T) {
	host := &fakeHost{windows: []*fakeWindow{{url: "https://alerts.example/public/html/index.html"}}}
	a := newTestAgent(host)

	data, _ := json.Marshal(push.Payload{
		Title: "Flood Alert",
		Body:  "Rising water",
		URL:   "/public/html/map.html",
		Tag:   "spc-alert-1",
	})
	if err := a.HandlePush(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.shown) != 1 || host.shown[0] != "Flood Alert" {
		t.Fatalf("expected one notification titled Flood Alert, got %v", host.shown)
	}

	opts := host.shownOpts[0]
	if !opts.RequireInteraction {
		t.Error("alerts must stay visible until dismissed")
	}
	if len(opts.Vibrate) == 0 {
		t.Error("expected a vibration pattern")
	}
	if opts.Tag != "spc-alert-1" {
		t.Errorf("expected dispatch tag on the notification, got %q", opts.Tag)
	}
	if len(opts.Actions) != 2 {
		t.Fatalf("expected view/dismiss actions, got %d", len(opts.Actions))
	}
	if opts.Actions[0].Action != ActionView || opts.Actions[1].Action != ActionDismiss {
		t.Errorf("unexpected actions: %+v", opts.Actions)
	}

	// Open window gets the best-effort relay after display.
	w := host.windows[0]
	if len(w.messages) != 1 || w.messages[0].Type != MsgPushReceived {
		t.Errorf("expected PUSH_RECEIVED relayed to the window, got %v", w.messages)
	}
}

func TestPushDisplayErrorFallsBackToMinimalNotification(t *testing.T) {
	host := &fakeHost{showErrs: []error{errors.New("display failed")}}
	a := newTestAgent(host)

	data, _ := json.Marshal(push.Payload{Title: "Flood Alert", Body: "Rising water"})
	if err := a.HandlePush(context.Background(), data); err != nil {
		t.Fatalf("fallback display should recover: %v", err)
	}
	if len(host.shown) != 1 {
		t.Fatalf("expected the fallback notification, got %d shown", len(host.shown))
	}
	if host.shownOpts[0].Tag != "fallback-notification" {
		t.Errorf("expected fallback tag, got %q", host.shownOpts[0].Tag)
	}
}

func TestPushEmptyEventStillShowsNotification(t *testing.T) {
	host := &fakeHost{}
	a := newTestAgent(host)

	if err := a.HandlePush(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.shown) != 1 {
		t.Fatalf("a push with no payload must still show a notification, got %d", len(host.shown))
	}
}

func TestClickDismissDoesNothing(t *testing.T) {
	host := &fakeHost{windows: []*fakeWindow{{url: "https://alerts.example/public/html/index.html"}}}
	a := newTestAgent(host)

	if err := a.HandleNotificationClick(context.Background(), ActionDismiss, ClickData{URL: "/public/html/map.html"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.windows[0].focused != 0 || len(host.opened) != 0 {
		t.Error("dismiss must not focus or open windows")
	}
}

func TestClickFocusesMatchingWindow(t *testing.T) {
	matching := &fakeWindow{url: "https://alerts.example/public/html/map.html"}
	other := &fakeWindow{url: "https://alerts.example/public/html/index.html"}
	host := &fakeHost{windows: []*fakeWindow{other, matching}}
	a := newTestAgent(host)

	if err := a.HandleNotificationClick(context.Background(), ActionView, ClickData{URL: "/public/html/map.html"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matching.focused != 1 {
		t.Error("expected the matching window focused")
	}
	if len(matching.navigated) != 0 {
		t.Error("matching window must not be re-navigated")
	}
	if len(host.opened) != 0 {
		t.Error("must not open a new window when one matches")
	}
}

func TestClickNavigatesFirstWindowWhenNoneMatches(t *testing.T) {
	first := &fakeWindow{url: "https://alerts.example/public/html/index.html"}
	host := &fakeHost{windows: []*fakeWindow{first}}
	a := newTestAgent(host)

	if err := a.HandleNotificationClick(context.Background(), "", ClickData{URL: "/public/html/map.html"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.focused != 1 {
		t.Error("expected the first window focused")
	}
	if len(first.navigated) != 1 || first.navigated[0] != "/public/html/map.html" {
		t.Errorf("expected navigation to the target, got %v", first.navigated)
	}
	if len(host.opened) != 0 {
		t.Error("must not open a new window when one can be redirected")
	}
}

func TestClickOpensNewWindowWhenNoneOpen(t *testing.T) {
	host := &fakeHost{}
	a := newTestAgent(host)

	if err := a.HandleNotificationClick(context.Background(), ActionView, ClickData{URL: "/public/html/map.html"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.opened) != 1 || host.opened[0] != "/public/html/map.html" {
		t.Errorf("expected exactly one new window at the target, got %v", host.opened)
	}
}

func TestClickDefaultsToHomeURL(t *testing.T) {
	host := &fakeHost{}
	a := newTestAgent(host)

	if err := a.HandleNotificationClick(context.Background(), ActionView, ClickData{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.opened) != 1 || host.opened[0] != push.DefaultURL {
		t.Errorf("expected app home opened, got %v", host.opened)
	}
}

func TestKeepAlivePingGetsAck(t *testing.T) {
	a := newTestAgent(&fakeHost{})

	reply, err := a.HandleMessage(context.Background(), Message{Type: MsgKeepAlive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply == nil || reply.Type != MsgAlive {
		t.Fatalf("expected ALIVE ack, got %+v", reply)
	}
	if reply.Timestamp == 0 {
		t.Error("ack should carry a timestamp")
	}
}

func TestVersionQuery(t *testing.T) {
	a := newTestAgent(&fakeHost{})

	reply, err := a.HandleMessage(context.Background(), Message{Type: MsgGetVersion})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply == nil || reply.Version != "spc-alerts-v12" {
		t.Fatalf("expected version reply, got %+v", reply)
	}
}

func TestSubscriptionChangeRenewsAndNotifiesWindows(t *testing.T) {
	w := &fakeWindow{url: "https://alerts.example/public/html/index.html"}
	renewed := &push.SubscriptionRecord{
		Endpoint: "https://push.example/new",
		Keys:     push.SubscriptionKeys{P256dh: "p", Auth: "a"},
	}
	host := &fakeHost{windows: []*fakeWindow{w}, resub: renewed}
	a := newTestAgent(host)

	if err := a.HandleSubscriptionChange(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("expected one message to the window, got %d", len(w.messages))
	}
	msg := w.messages[0]
	if msg.Type != MsgSubscriptionChanged {
		t.Errorf("expected SUBSCRIPTION_CHANGED, got %q", msg.Type)
	}
	if msg.Subscription == nil || msg.Subscription.Endpoint != "https://push.example/new" {
		t.Errorf("expected renewed subscription propagated, got %+v", msg.Subscription)
	}
}

func TestSyncKeepAliveWarmsUp(t *testing.T) {
	host := &fakeHost{}
	a := newTestAgent(host)

	if err := a.HandleSync(context.Background(), SyncKeepAlive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.fetched) != 1 {
		t.Errorf("expected a warm-up fetch, got %v", host.fetched)
	}

	if err := a.HandleSync(context.Background(), "other"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.fetched) != 1 {
		t.Error("unknown sync tags must be ignored")
	}
}

func TestRunAnswersKeepAliveOverEventLoop(t *testing.T) {
	host := &fakeHost{}
	a := newTestAgent(host)

	events := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background(), events) }()

	reply := make(chan Message, 1)
	events <- MessageEvent{Msg: Message{Type: MsgKeepAlive}, Reply: reply}
	got := <-reply
	if got.Type != MsgAlive {
		t.Errorf("expected ALIVE over the loop, got %q", got.Type)
	}

	close(events)
	if err := <-done; err != nil {
		t.Errorf("unexpected run error: %v", err)
	}
}
