package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the contact captured by the checkout form before a payment may be
// created. The WhatsApp number is stored digits-only.
type Lead struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	WhatsApp         string    `json:"whatsapp" gorm:"type:varchar(20);not null"`
	BusinessName     string    `json:"business_name" gorm:"type:varchar(160)"`
	BusinessCategory string    `json:"business_category" gorm:"type:varchar(120)"`
	City             string    `json:"city" gorm:"type:varchar(120)"`
	SessionID        string    `json:"session_id" gorm:"type:varchar(80);index"`
	UTMSource        string    `json:"utm_source,omitempty" gorm:"type:varchar(120)"`
	UTMMedium        string    `json:"utm_medium,omitempty" gorm:"type:varchar(120)"`
	UTMCampaign      string    `json:"utm_campaign,omitempty" gorm:"type:varchar(120)"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}
