package push

import "github.com/google/uuid"

// DeliveryOutcome is the result of one subscription's delivery attempt.
type DeliveryOutcome struct {
	SubscriptionID uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	Delivered      bool      `json:"-"`
	Error          string    `json:"error,omitempty"`
	Removed        bool      `json:"removed,omitempty"`
	LatencyMs      int64     `json:"-"`
}

// DeliveryReport aggregates a whole fan-out call.
// Invariant: Delivered + Failed == TotalAttempted.
type DeliveryReport struct {
	Delivered      int
	Failed         int
	TotalAttempted int
	Kind           string // targeted or broadcast
	Message        string
	Errors         []DeliveryOutcome // failures only
}
