package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ArdenN1895/alerts/pkg/push"
	"go.uber.org/zap"
)

const (
	SyncKeepAlive    = "keep-alive"
	SyncCheckUpdates = "check-updates"
)

// vibrationPattern is the alert buzz used for every displayed notification.
var vibrationPattern = []int{200, 100, 200, 100, 200}

type Config struct {
	// Version identifies the running receiver, reported on version queries.
	Version string
	// AppName is the fallback notification title.
	AppName string
	// ServerKey is the application server public key used for subscription
	// renewal.
	ServerKey string
	// DefaultURL is the routing target when a payload names none.
	DefaultURL string
	// WarmupURL is fetched on keep-alive and periodic syncs.
	WarmupURL string
	// Precache is fetched best-effort on install.
	Precache []string
}

// Agent is the background receiver: a single-instance, event-driven process
// that outlives any open window. The platform may terminate it between
// events, so handlers are pure functions of the event payload and the Host;
// nothing is kept in agent memory across events.
type Agent struct {
	cfg  Config
	host Host
	log  *zap.Logger
}

func New(cfg Config, host Host, log *zap.Logger) *Agent {
	if cfg.AppName == "" {
		cfg.AppName = "SPC Alerts"
	}
	if cfg.DefaultURL == "" {
		cfg.DefaultURL = push.DefaultURL
	}
	return &Agent{cfg: cfg, host: host, log: log}
}

// HandleInstall precaches the app shell and promotes the new receiver
// immediately. Individual cache misses never fail the install.
func (a *Agent) HandleInstall(ctx context.Context) error {
	for _, u := range a.cfg.Precache {
		if err := a.host.Fetch(ctx, u); err != nil {
			a.log.Warn("Failed to precache resource", zap.String("url", u), zap.Error(err))
		}
	}
	a.host.SkipWaiting()
	return nil
}

// HandleActivate takes control of all open windows right away.
func (a *Agent) HandleActivate(ctx context.Context) error {
	return a.host.ClaimClients(ctx)
}

// HandlePush handles one opaque push message. A visible notification is
// shown for every push event, no matter what: mobile platforms suppress
// future pushes to a subscription whose events pass with no visible effect.
// Notifying open windows afterwards is best-effort only.
func (a *Agent) HandlePush(ctx context.Context, data []byte) error {
	payload := a.fallbackPayload()

	if len(data) > 0 {
		var parsed push.Payload
		if err := json.Unmarshal(data, &parsed); err != nil {
			// Unparseable payload still produces a notification.
			a.log.Warn("Failed to parse push payload, using fallback", zap.Error(err))
		} else {
			if parsed.Title != "" {
				payload.Title = parsed.Title
			}
			if parsed.Body != "" {
				payload.Body = parsed.Body
			}
			if parsed.Icon != "" {
				payload.Icon = parsed.Icon
			}
			if parsed.Badge != "" {
				payload.Badge = parsed.Badge
			}
			payload.Image = parsed.Image
			payload.URL = parsed.URL
			payload.Data = parsed.Data
			payload.Tag = parsed.Tag
			payload.RequireInteraction = parsed.RequireInteraction
		}
	}

	if payload.URL == "" {
		payload.URL = a.cfg.DefaultURL
	}
	if payload.Tag == "" {
		payload.Tag = fmt.Sprintf("spc-alert-%d", time.Now().UnixMilli())
	}

	opts := NotificationOptions{
		Body:               payload.Body,
		Icon:               payload.Icon,
		Badge:              payload.Badge,
		Image:              payload.Image,
		Vibrate:            vibrationPattern,
		RequireInteraction: true,
		Renotify:           true,
		Tag:                payload.Tag,
		Data: ClickData{
			URL:       payload.URL,
			Timestamp: time.Now().UnixMilli(),
			Extra:     payload.Data,
		},
		Actions: []Action{
			{Action: ActionView, Title: "View", Icon: payload.Icon},
			{Action: ActionDismiss, Title: "Dismiss"},
		},
	}

	if err := a.host.ShowNotification(ctx, payload.Title, opts); err != nil {
		a.log.Error("Failed to show notification, trying minimal fallback", zap.Error(err))
		fb := NotificationOptions{
			Body:  "New alert received",
			Icon:  push.DefaultIcon,
			Badge: push.DefaultBadge,
			Tag:   "fallback-notification",
		}
		if err := a.host.ShowNotification(ctx, a.cfg.AppName, fb); err != nil {
			return err
		}
		return nil
	}

	// The notification is already on screen; window messaging must not
	// fail the push handling.
	if wins, err := a.host.Windows(ctx); err == nil {
		msg := Message{Type: MsgPushReceived, Data: payload, Timestamp: time.Now().UnixMilli()}
		for _, w := range wins {
			if err := w.PostMessage(ctx, msg); err != nil {
				a.log.Warn("Failed to notify window", zap.String("window", w.URL()), zap.Error(err))
			}
		}
	}

	return nil
}

// HandleNotificationClick routes a notification interaction. Reuse an open
// window with a matching path before redirecting one, and redirect before
// opening a new window: alert-heavy sessions must not proliferate tabs.
func (a *Agent) HandleNotificationClick(ctx context.Context, action string, data ClickData) error {
	if action == ActionDismiss {
		return nil
	}

	target := data.URL
	if target == "" {
		target = a.cfg.DefaultURL
	}

	wins, err := a.host.Windows(ctx)
	if err != nil {
		a.log.Warn("Failed to enumerate windows", zap.Error(err))
		return a.host.OpenWindow(ctx, target)
	}

	targetPath := a.resolvePath(target)
	for _, w := range wins {
		if a.resolvePath(w.URL()) == targetPath {
			return w.Focus(ctx)
		}
	}

	if len(wins) > 0 {
		if err := wins[0].Focus(ctx); err == nil {
			if err := wins[0].Navigate(ctx, target); err == nil {
				return nil
			}
		}
	}

	return a.host.OpenWindow(ctx, target)
}

// HandleNotificationClose only records the dismissal.
func (a *Agent) HandleNotificationClose(tag string) {
	a.log.Info("Notification dismissed without clicking", zap.String("tag", tag))
}

// HandleSubscriptionChange renews an invalidated subscription with the same
// server key and hands the new record to every open window. Persistence is
// the foreground's job: the page retries the store, the agent does not.
func (a *Agent) HandleSubscriptionChange(ctx context.Context) error {
	sub, err := a.host.Resubscribe(ctx, a.cfg.ServerKey)
	if err != nil {
		a.log.Error("Failed to renew push subscription", zap.Error(err))
		return err
	}

	wins, err := a.host.Windows(ctx)
	if err != nil {
		a.log.Warn("Renewed subscription but no window reachable", zap.Error(err))
		return nil
	}
	msg := Message{Type: MsgSubscriptionChanged, Subscription: sub, Timestamp: time.Now().UnixMilli()}
	for _, w := range wins {
		if err := w.PostMessage(ctx, msg); err != nil {
			a.log.Warn("Failed to post renewed subscription", zap.String("window", w.URL()), zap.Error(err))
		}
	}
	return nil
}

// HandleMessage answers foreground control messages. The keep-alive ping
// gets an acknowledgement the foreground uses to detect a dead receiver.
func (a *Agent) HandleMessage(ctx context.Context, msg Message) (*Message, error) {
	switch msg.Type {
	case MsgKeepAlive:
		return &Message{Type: MsgAlive, Timestamp: time.Now().UnixMilli()}, nil
	case MsgGetVersion:
		return &Message{Type: MsgVersion, Version: a.cfg.Version}, nil
	case MsgSkipWaiting:
		a.host.SkipWaiting()
		return nil, nil
	case MsgClaimClients:
		return nil, a.host.ClaimClients(ctx)
	default:
		return nil, nil
	}
}

// HandleSync services background-sync wakeups registered by the foreground.
func (a *Agent) HandleSync(ctx context.Context, tag string) error {
	if tag != SyncKeepAlive {
		return nil
	}
	return a.host.Fetch(ctx, a.warmupURL())
}

func (a *Agent) HandlePeriodicSync(ctx context.Context, tag string) error {
	if tag != SyncCheckUpdates {
		return nil
	}
	return a.host.Fetch(ctx, a.warmupURL())
}

func (a *Agent) warmupURL() string {
	if a.cfg.WarmupURL != "" {
		return a.cfg.WarmupURL
	}
	return push.DefaultIcon
}

func (a *Agent) fallbackPayload() *push.Payload {
	return &push.Payload{
		Title: a.cfg.AppName,
		Body:  "You have a new alert",
		Icon:  push.DefaultIcon,
		Badge: push.DefaultBadge,
		Data:  map[string]interface{}{},
	}
}

// resolvePath normalizes an absolute or relative URL to its path component
// against the host origin.
func (a *Agent) resolvePath(raw string) string {
	base, err := url.Parse(a.host.Origin())
	if err != nil {
		return raw
	}
	resolved, err := base.Parse(raw)
	if err != nil {
		return raw
	}
	return resolved.Path
}
