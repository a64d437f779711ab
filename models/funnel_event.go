package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Funnel stages tracked from landing through purchase.
const (
	StageLanding            = "landing"
	StageVideoView          = "video_view"
	StageCTAClick           = "cta_click"
	StageFormSubmit         = "form_submit"
	StageReportGenerated    = "report_generated"
	StageCheckoutClick      = "checkout_click"
	StageCheckoutFormSubmit = "checkout_form_submit"
	StagePaymentConfirmed   = "payment_confirmed"
)

// KnownStages lists the stages the admin dashboard reports on, in funnel order.
var KnownStages = []string{
	StageLanding,
	StageVideoView,
	StageCTAClick,
	StageFormSubmit,
	StageReportGenerated,
	StageCheckoutClick,
	StageCheckoutFormSubmit,
	StagePaymentConfirmed,
}

// FunnelEvent is a named stage marker in the lead-to-purchase journey.
type FunnelEvent struct {
	ID          int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	Stage       string              `json:"stage" gorm:"type:varchar(40);index;not null"`
	SessionID   string              `json:"session_id" gorm:"type:varchar(80);index"`
	LeadID      *string             `json:"lead_id,omitempty" gorm:"type:varchar(80);index"`
	PaymentID   *string             `json:"payment_id,omitempty" gorm:"type:varchar(40)"`
	Amount      decimal.NullDecimal `json:"amount,omitempty" gorm:"type:numeric(12,2)"`
	Currency    string              `json:"currency,omitempty" gorm:"type:varchar(10)"`
	UTMSource   string              `json:"utm_source,omitempty" gorm:"type:varchar(120);index"`
	UTMMedium   string              `json:"utm_medium,omitempty" gorm:"type:varchar(120)"`
	UTMCampaign string              `json:"utm_campaign,omitempty" gorm:"type:varchar(120)"`
	UTMTerm     string              `json:"utm_term,omitempty" gorm:"type:varchar(120)"`
	UTMContent  string              `json:"utm_content,omitempty" gorm:"type:varchar(120)"`
	Metadata    *string             `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time           `json:"created_at" gorm:"autoCreateTime;index"`
}

// UTM reconstructs the attribution bundle stored on the event row.
func (e *FunnelEvent) UTM() UTMParams {
	return UTMParams{
		Source:   e.UTMSource,
		Medium:   e.UTMMedium,
		Campaign: e.UTMCampaign,
		Term:     e.UTMTerm,
		Content:  e.UTMContent,
	}
}

// SetUTM copies the attribution bundle onto the event's columns.
func (e *FunnelEvent) SetUTM(u UTMParams) {
	e.UTMSource = u.Source
	e.UTMMedium = u.Medium
	e.UTMCampaign = u.Campaign
	e.UTMTerm = u.Term
	e.UTMContent = u.Content
}

// FunnelMetrics is the admin dashboard aggregate: per-stage counts, the
// landing-to-purchase conversion rate and a UTM source/medium/campaign
// breakdown.
type FunnelMetrics struct {
	StageCounts    map[string]int64 `json:"stage_counts"`
	ConversionRate float64          `json:"conversion_rate"`
	UTMStats       map[string]int64 `json:"utm_stats"`
}

// FunnelEventFilter narrows the admin event listing.
type FunnelEventFilter struct {
	Stage    string
	Search   string
	Page     int
	PageSize int
}
