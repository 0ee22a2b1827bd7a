package agent

import (
	"context"

	"github.com/ArdenN1895/alerts/pkg/push"
)

// Host is the platform surface the background receiver runs against. The
// receiver owns no durable state of its own: everything it needs lives in
// the event payload or behind these calls.
type Host interface {
	// ShowNotification asks the platform to display a visible notification.
	ShowNotification(ctx context.Context, title string, opts NotificationOptions) error

	// Windows lists the currently open application windows.
	Windows(ctx context.Context) ([]Window, error)

	// OpenWindow opens a new application window at the given URL.
	OpenWindow(ctx context.Context, url string) error

	// Resubscribe re-registers with the push service using the given
	// application server key and returns the new subscription record.
	Resubscribe(ctx context.Context, serverKey string) (*push.SubscriptionRecord, error)

	// SkipWaiting promotes a freshly installed receiver immediately.
	SkipWaiting()

	// ClaimClients takes control of all open windows.
	ClaimClients(ctx context.Context) error

	// Fetch performs a plain network fetch, used to warm the agent on
	// keep-alive syncs and to precache resources on install.
	Fetch(ctx context.Context, url string) error

	// Origin is the application origin used to resolve relative routing
	// targets.
	Origin() string
}

// Window is one open foreground window reachable from the receiver.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	PostMessage(ctx context.Context, msg Message) error
}
