package agent

import "github.com/ArdenN1895/alerts/pkg/push"

// Message types exchanged between the receiver and foreground windows.
const (
	MsgKeepAlive           = "KEEP_ALIVE"
	MsgAlive               = "ALIVE"
	MsgSkipWaiting         = "SKIP_WAITING"
	MsgClaimClients        = "CLAIM_CLIENTS"
	MsgGetVersion          = "GET_VERSION"
	MsgVersion             = "VERSION"
	MsgPushReceived        = "PUSH_RECEIVED"
	MsgSubscriptionChanged = "SUBSCRIPTION_CHANGED"
)

type Message struct {
	Type         string                   `json:"type"`
	Timestamp    int64                    `json:"timestamp,omitempty"`
	Version      string                   `json:"version,omitempty"`
	Data         *push.Payload            `json:"data,omitempty"`
	Subscription *push.SubscriptionRecord `json:"subscription,omitempty"`
}

// Notification action identifiers.
const (
	ActionView    = "open"
	ActionDismiss = "close"
)

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// ClickData rides on a displayed notification and routes the click.
type ClickData struct {
	URL       string                 `json:"url"`
	Timestamp int64                  `json:"timestamp"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// NotificationOptions mirror the platform display options. RequireInteraction
// keeps an alert visible until the user dismisses it.
type NotificationOptions struct {
	Body               string
	Icon               string
	Badge              string
	Image              string
	Vibrate            []int
	RequireInteraction bool
	Silent             bool
	Renotify           bool
	Tag                string
	Data               ClickData
	Actions            []Action
}
