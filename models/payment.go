package models

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// Payment statuses as reported by Mercado Pago. The set is owned by the
// processor; anything outside it is passed through untouched.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusInProcess = "in_process"
)

// IsTerminalStatus reports whether no further status change is expected.
// Unknown statuses are never terminal.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// PaymentIntent is a request to collect money, immutable once submitted to
// the gateway.
type PaymentIntent struct {
	Amount         decimal.Decimal
	Description    string
	PayerEmail     string
	PayerFirstName string
	PayerLastName  string
}

// PixPayment is the gateway's view of a PaymentIntent as tracked by this
// system. It is only ever mutated by re-fetching from the gateway.
type PixPayment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	QRCode            string          `json:"qr_code"`
	QRCodeBase64      string          `json:"qr_code_base64,omitempty"`
	TicketURL         string          `json:"ticket_url,omitempty"`
	DateCreated       string          `json:"date_created,omitempty"`
	DateOfExpiration  string          `json:"date_of_expiration,omitempty"`
}

// QRImageURL returns a renderable image source for the QR payload. When the
// gateway did not include a pre-rendered image, the payload is routed through
// a generic QR rendering service instead of failing.
func (p *PixPayment) QRImageURL() string {
	if p.QRCodeBase64 != "" {
		return "data:image/png;base64," + p.QRCodeBase64
	}
	if p.QRCode == "" {
		return ""
	}
	return "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=" + url.QueryEscape(p.QRCode)
}
