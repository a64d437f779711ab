package services

import (
	"errors"
	"net/url"

	"github.com/JonasKash/sok/models"
)

var ErrInvalidBaseURL = errors.New("base url must be absolute")

// UTMPreset is a one-click campaign template for the admin UTM generator.
type UTMPreset struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
}

// UTMPresets lists the campaign templates offered by the admin dashboard.
var UTMPresets = []UTMPreset{
	{Name: "Facebook Ads", Source: "facebook", Medium: "cpc", Campaign: "facebook_ads"},
	{Name: "Google Ads", Source: "google", Medium: "cpc", Campaign: "google_ads"},
	{Name: "Instagram", Source: "instagram", Medium: "social", Campaign: "instagram_organic"},
	{Name: "Email Marketing", Source: "email", Medium: "email", Campaign: "newsletter"},
	{Name: "WhatsApp", Source: "whatsapp", Medium: "social", Campaign: "whatsapp_campaign"},
}

// BuildUTMURL appends the non-empty UTM parameters to a landing page URL.
// Existing query parameters on the base URL are preserved.
func BuildUTMURL(baseURL string, utm models.UTMParams) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || !parsed.IsAbs() {
		return "", ErrInvalidBaseURL
	}

	values := parsed.Query()
	utm.AppendTo(values)
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
