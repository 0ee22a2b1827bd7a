package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is one device registration with a push service, owned by one
// principal. At most one live row per user: new registrations upsert on
// user_id, last registered device wins.
type Subscription struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         string    `gorm:"size:100;not null;uniqueIndex" json:"user_id"`
	Endpoint       string    `gorm:"type:text;not null" json:"endpoint"`
	P256dh         string    `gorm:"type:text;not null" json:"p256dh"`
	Auth           string    `gorm:"type:text;not null" json:"auth"`
	ExpirationTime *int64    `json:"expiration_time,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
