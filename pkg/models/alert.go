package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert is the audit row for one fan-out dispatch call.
type Alert struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title          string    `gorm:"size:200;not null"`
	Kind           string    `gorm:"size:20;not null;index"` // targeted, broadcast
	Urgency        string    `gorm:"size:20;not null"`
	Tag            string    `gorm:"size:100;not null;index"`
	Delivered      int       `gorm:"not null"`
	Failed         int       `gorm:"not null"`
	TotalAttempted int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// DeliveryAttempt records one failed per-subscription outcome of an Alert.
type DeliveryAttempt struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AlertID        uuid.UUID `gorm:"type:uuid;not null;index"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null"`
	UserID         string    `gorm:"size:100;index"`
	Error          string    `gorm:"type:text"`
	Removed        bool      `gorm:"not null"`
	LatencyMs      int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Alert Alert `gorm:"foreignKey:AlertID;constraint:OnDelete:CASCADE"`
}
