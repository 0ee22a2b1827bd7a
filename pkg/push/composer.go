package push

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultIcon  = "/public/img/icon-192.png"
	DefaultBadge = "/public/img/badge-72.png"
	DefaultURL   = "/public/html/index.html"
	DefaultTTL   = 86400 // 24 hours
)

// Payload is the canonical JSON body encrypted for every device.
type Payload struct {
	Title              string                 `json:"title"`
	Body               string                 `json:"body"`
	Icon               string                 `json:"icon"`
	Badge              string                 `json:"badge"`
	Image              string                 `json:"image,omitempty"`
	URL                string                 `json:"url"`
	Data               map[string]interface{} `json:"data"`
	Timestamp          int64                  `json:"timestamp"`
	Tag                string                 `json:"tag"`
	RequireInteraction bool                   `json:"requireInteraction"`
}

// Plan says which subscriptions a dispatch fetches. Pure predicate over the
// store, no side effects.
type Plan struct {
	Targeted bool
	UserIDs  []string
}

func (p Plan) Kind() string {
	if p.Targeted {
		return "targeted"
	}
	return "broadcast"
}

type Composer struct {
	icon  string
	badge string
	url   string
}

func NewComposer() *Composer {
	return &Composer{icon: DefaultIcon, badge: DefaultBadge, url: DefaultURL}
}

// Compose validates the request and normalizes it into the canonical payload
// plus a delivery plan. The tag is unique per dispatch so simultaneous
// notifications never collapse into one on a device.
func (c *Composer) Compose(req *NotificationRequest) (*Payload, Plan, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, Plan{}, &ValidationError{Msg: "title and body are required"}
	}

	now := time.Now()

	payload := &Payload{
		Title:              req.Title,
		Body:               req.Body,
		Icon:               req.Icon,
		Badge:              req.Badge,
		Image:              req.Image,
		URL:                req.URL,
		Data:               req.Data,
		Timestamp:          now.UnixMilli(),
		Tag:                fmt.Sprintf("spc-alert-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		RequireInteraction: Urgency(req.Urgency) == UrgencyHigh,
	}
	if payload.Icon == "" {
		payload.Icon = c.icon
	}
	if payload.Badge == "" {
		payload.Badge = c.badge
	}
	if payload.URL == "" {
		payload.URL = c.url
	}
	if payload.Data == nil {
		payload.Data = map[string]interface{}{}
	}

	plan := Plan{}
	if len(req.UserIDs) > 0 {
		plan.Targeted = true
		plan.UserIDs = req.UserIDs
	}

	return payload, plan, nil
}

// Urgency normalizes the requested urgency; anything but "high" is treated
// as normal.
func Urgency(u string) string {
	if u == UrgencyHigh {
		return UrgencyHigh
	}
	return UrgencyNormal
}
