package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdConversionSink forwards purchase signals to an ad platform's
// conversion endpoint.
type AdConversionSink interface {
	TrackPurchase(ctx context.Context, purchase PurchaseEvent) error
}

// PurchaseEvent is the conversion signal fired on an approved payment.
// Email and phone are raw here; the sink hashes them before transmission.
type PurchaseEvent struct {
	Value    decimal.Decimal
	Currency string
	OrderID  string
	LeadID   string
	Email    string
	Phone    string
}

const (
	defaultGraphBaseURL = "https://graph.facebook.com"
	defaultAPIVersion   = "v24.0"
	purchaseContentName = "Relatório de Autoridade Digital"
)

// FacebookConversions sends server-side events to the Facebook Conversions
// API. Personally identifying fields are SHA-256 hashed before they leave
// the process.
type FacebookConversions struct {
	pixelID     string
	accessToken string
	apiVersion  string
	baseURL     string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewFacebookConversions(pixelID, accessToken string, logger *zap.Logger) *FacebookConversions {
	return &FacebookConversions{
		pixelID:     pixelID,
		accessToken: accessToken,
		apiVersion:  defaultAPIVersion,
		baseURL:     defaultGraphBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		logger:      logger,
	}
}

type fbUserData struct {
	Em         []string `json:"em,omitempty"`
	Ph         []string `json:"ph,omitempty"`
	ExternalID []string `json:"external_id,omitempty"`
}

type fbCustomData struct {
	Currency    string  `json:"currency,omitempty"`
	Value       float64 `json:"value,omitempty"`
	OrderID     string  `json:"order_id,omitempty"`
	ContentName string  `json:"content_name,omitempty"`
	NumItems    int     `json:"num_items,omitempty"`
}

type fbEvent struct {
	EventName    string       `json:"event_name"`
	EventTime    int64        `json:"event_time"`
	ActionSource string       `json:"action_source"`
	EventID      string       `json:"event_id"`
	UserData     fbUserData   `json:"user_data"`
	CustomData   fbCustomData `json:"custom_data"`
}

type fbRequest struct {
	Data        []fbEvent `json:"data"`
	AccessToken string    `json:"access_token"`
}

// hashPII normalizes and hashes a user-data field per the Conversions API
// matching rules.
func hashPII(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// TrackPurchase forwards a Purchase event. Without an access token the call
// is a logged no-op so an unconfigured install never breaks checkout.
func (f *FacebookConversions) TrackPurchase(ctx context.Context, purchase PurchaseEvent) error {
	if f.accessToken == "" {
		f.logger.Warn("facebook access token not configured, purchase event dropped",
			zap.String("order_id", purchase.OrderID),
		)
		return nil
	}

	user := fbUserData{}
	if h := hashPII(purchase.Email); h != "" {
		user.Em = []string{h}
	}
	if h := hashPII(purchase.Phone); h != "" {
		user.Ph = []string{h}
	}
	if h := hashPII(purchase.LeadID); h != "" {
		user.ExternalID = []string{h}
	}

	value, _ := purchase.Value.Float64()
	event := fbEvent{
		EventName:    "Purchase",
		EventTime:    time.Now().Unix(),
		ActionSource: "website",
		EventID:      fmt.Sprintf("Purchase_%s_%s", orFallback(purchase.LeadID, "anonymous"), uuid.NewString()),
		UserData:     user,
		CustomData: fbCustomData{
			Currency:    orFallback(purchase.Currency, "BRL"),
			Value:       value,
			OrderID:     purchase.OrderID,
			ContentName: purchaseContentName,
			NumItems:    1,
		},
	}

	body, err := json.Marshal(fbRequest{Data: []fbEvent{event}, AccessToken: f.accessToken})
	if err != nil {
		return fmt.Errorf("marshal conversion event: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/events", f.baseURL, f.apiVersion, f.pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send conversion event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("conversions api returned %s", resp.Status)
	}

	f.logger.Info("purchase conversion forwarded",
		zap.String("order_id", purchase.OrderID),
		zap.String("event_id", event.EventID),
	)
	return nil
}

func orFallback(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
