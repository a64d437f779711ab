package services

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
)

func redirectManager() *CheckoutManager {
	return &CheckoutManager{
		price:      decimal.NewFromFloat(29.90),
		successURL: "https://avestra.app/obrigado",
		logger:     zap.NewNop(),
	}
}

func TestBuildRedirectURL_OmitsUnknownIdentifiers(t *testing.T) {
	m := redirectManager()

	raw := m.buildRedirectURL(models.AttributionContext{}, 777)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()

	// Identifiers the attempt never produced do not appear at all.
	_, hasLead := q["lead_id"]
	_, hasSession := q["session_id"]
	assert.False(t, hasLead)
	assert.False(t, hasSession)
	for _, key := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"} {
		_, ok := q[key]
		assert.False(t, ok, key)
	}

	// The payment facts are always present.
	assert.Equal(t, "29.90", q.Get("payment_amount"))
	assert.Equal(t, "pix", q.Get("payment_method"))
	assert.Equal(t, "777", q.Get("payment_id"))
	assert.NotEmpty(t, q.Get("timestamp"))
}

func TestBuildRedirectURL_ZeroPaymentIDOmitted(t *testing.T) {
	m := redirectManager()

	raw := m.buildRedirectURL(models.AttributionContext{SessionID: "sess-1"}, 0)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()

	_, hasPayment := q["payment_id"]
	assert.False(t, hasPayment)
	assert.Equal(t, "sess-1", q.Get("session_id"))
}
