package models

import "net/url"

// UTMParams is the campaign attribution bundle captured on landing and
// carried through the funnel.
type UTMParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// AppendTo adds the non-empty UTM parameters to query values. Empty values
// are omitted entirely rather than serialized as blanks.
func (u UTMParams) AppendTo(values url.Values) {
	if u.Source != "" {
		values.Set("utm_source", u.Source)
	}
	if u.Medium != "" {
		values.Set("utm_medium", u.Medium)
	}
	if u.Campaign != "" {
		values.Set("utm_campaign", u.Campaign)
	}
	if u.Term != "" {
		values.Set("utm_term", u.Term)
	}
	if u.Content != "" {
		values.Set("utm_content", u.Content)
	}
}

// IsZero reports whether no attribution parameter was captured.
func (u UTMParams) IsZero() bool {
	return u == UTMParams{}
}

// AttributionContext correlates a visitor's journey across funnel steps.
// It is loaded and saved at the edges of the checkout flow and injected
// into the orchestrator and notifier; gateway logic never touches it.
type AttributionContext struct {
	SessionID string    `json:"session_id"`
	LeadID    string    `json:"lead_id,omitempty"`
	UTM       UTMParams `json:"utm"`
}
