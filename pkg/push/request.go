package push

const (
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
)

// NotificationRequest is the fan-out entry point body. Presence of UserIDs
// switches a broadcast into a targeted dispatch.
type NotificationRequest struct {
	Title   string                 `json:"title" binding:"required"`
	Body    string                 `json:"body" binding:"required"`
	Icon    string                 `json:"icon,omitempty"`
	Badge   string                 `json:"badge,omitempty"`
	Image   string                 `json:"image,omitempty"`
	URL     string                 `json:"url,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Urgency string                 `json:"urgency,omitempty"`
	UserIDs []string               `json:"user_ids,omitempty"`
}

// SubscriptionKeys are the two opaque values used to encrypt payloads for one
// device.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscriptionRecord is the wire shape of a subscription as persisted by the
// foreground, keyed by owning principal with upsert-on-conflict semantics.
type SubscriptionRecord struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *int64           `json:"expirationTime"`
	Keys           SubscriptionKeys `json:"keys"`
}
