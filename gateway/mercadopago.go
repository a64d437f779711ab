package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonasKash/sok/models"
)

// Port is the payment gateway boundary. The concrete HTTP adapter lives
// behind it so the checkout core can run against a fake in tests.
type Port interface {
	CreatePayment(ctx context.Context, intent models.PaymentIntent) (*models.PixPayment, error)
	GetPaymentStatus(ctx context.Context, id int64) (*models.PixPayment, error)
}

const (
	defaultBaseURL = "https://api.mercadopago.com"
	requestTimeout = 5 * time.Second

	// Defaults applied when the caller omits optional intent fields.
	DefaultDescription = "Relatório de Autoridade Digital - Avestra"
	defaultPayerEmail  = "cliente@avestra.app"
	defaultFirstName   = "Cliente"
	defaultLastName    = "Avestra"
)

// Client is the Mercado Pago adapter. It talks to the REST API directly
// rather than through an SDK so the X-Idempotency-Key header stays under
// our control.
type Client struct {
	baseURL     string
	accessToken string
	keys        KeyAllocator
	httpClient  *http.Client
}

func NewClient(accessToken, baseURL string, keys KeyAllocator) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		keys:        keys,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

type payerPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type createPaymentPayload struct {
	TransactionAmount json.Number  `json:"transaction_amount"`
	Description       string       `json:"description"`
	PaymentMethodID   string       `json:"payment_method_id"`
	Payer             payerPayload `json:"payer"`
}

type transactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url"`
}

type pointOfInteraction struct {
	TransactionData transactionData `json:"transaction_data"`
}

type paymentResponse struct {
	ID                 int64              `json:"id"`
	Status             string             `json:"status"`
	StatusDetail       string             `json:"status_detail"`
	TransactionAmount  decimal.Decimal    `json:"transaction_amount"`
	PointOfInteraction pointOfInteraction `json:"point_of_interaction"`
	DateCreated        string             `json:"date_created"`
	DateOfExpiration   string             `json:"date_of_expiration"`
}

// validateIntent fails fast on malformed input and fills processor defaults.
// It runs before any idempotency key is consumed.
func validateIntent(intent *models.PaymentIntent) error {
	if !intent.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if intent.Amount.Exponent() < -2 {
		return &ValidationError{Field: "amount", Reason: "more than 2 decimal places"}
	}
	if intent.PayerEmail == "" {
		intent.PayerEmail = defaultPayerEmail
	}
	if !strings.Contains(intent.PayerEmail, "@") {
		return &ValidationError{Field: "payer email", Reason: "must contain @"}
	}
	if intent.Description == "" {
		intent.Description = DefaultDescription
	}
	if intent.PayerFirstName == "" {
		intent.PayerFirstName = defaultFirstName
	}
	if intent.PayerLastName == "" {
		intent.PayerLastName = defaultLastName
	}
	return nil
}

// CreatePayment submits a PIX payment. Every call carries a fresh
// idempotency key; the processor deduplicates retries bearing the same key.
func (c *Client) CreatePayment(ctx context.Context, intent models.PaymentIntent) (*models.PixPayment, error) {
	if err := validateIntent(&intent); err != nil {
		return nil, err
	}

	payload := createPaymentPayload{
		// Exactly 2 decimal places on the wire; json.Number keeps the
		// formatting the processor documents.
		TransactionAmount: json.Number(intent.Amount.StringFixed(2)),
		Description:       intent.Description,
		PaymentMethodID:   "pix",
		Payer: payerPayload{
			Email:     intent.PayerEmail,
			FirstName: intent.PayerFirstName,
			LastName:  intent.PayerLastName,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", c.keys.NewKey())

	return c.do(req)
}

// GetPaymentStatus re-fetches a payment by its gateway-assigned id.
func (c *Client) GetPaymentStatus(ctx context.Context, id int64) (*models.PixPayment, error) {
	if id <= 0 {
		return nil, &ValidationError{Field: "payment id", Reason: "must be a positive identifier"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/payments/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*models.PixPayment, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, RawMessage: gatewayMessage(raw)}
	}

	var pr paymentResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, RawMessage: "malformed gateway response"}
	}

	return &models.PixPayment{
		ID:                pr.ID,
		Status:            pr.Status,
		StatusDetail:      pr.StatusDetail,
		TransactionAmount: pr.TransactionAmount,
		QRCode:            pr.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64:      pr.PointOfInteraction.TransactionData.QRCodeBase64,
		TicketURL:         pr.PointOfInteraction.TransactionData.TicketURL,
		DateCreated:       pr.DateCreated,
		DateOfExpiration:  pr.DateOfExpiration,
	}, nil
}

// gatewayMessage extracts a short diagnostic from an error body for
// server-side logs.
func gatewayMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
