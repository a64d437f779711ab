package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/controllers"
	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/services"
)

type memoryLeadRepo struct {
	mu    sync.Mutex
	leads []*models.Lead
}

func (r *memoryLeadRepo) Create(_ context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, lead)
	return nil
}

func (r *memoryLeadRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, context.Canceled
}

type memoryAttributionRepo struct {
	mu    sync.Mutex
	saved map[string]models.AttributionContext
}

func (r *memoryAttributionRepo) Save(_ context.Context, attribution models.AttributionContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		r.saved = make(map[string]models.AttributionContext)
	}
	r.saved[attribution.SessionID] = attribution
	return nil
}

func (r *memoryAttributionRepo) Get(_ context.Context, sessionID string) (*models.AttributionContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.saved[sessionID]; ok {
		return &a, nil
	}
	return nil, nil
}

func checkoutRouter(gw *mockGateway) *gin.Engine {
	funnel := services.NewFunnelService(&memoryEventRepo{}, nil, nil, zap.NewNop())
	leadRepo := &memoryLeadRepo{}
	notifier := services.NewConversionNotifier(funnel, nil, leadRepo, zap.NewNop())
	mgr := services.NewCheckoutManager(
		gw, notifier, leadRepo, &memoryAttributionRepo{}, funnel, nil,
		decimal.NewFromFloat(29.90), "https://avestra.app/obrigado", zap.NewNop(),
	)
	cc := &controllers.CheckoutController{Manager: mgr, Logger: zap.NewNop()}

	r := gin.New()
	checkout := r.Group("/checkout")
	checkout.POST("", cc.Open)
	checkout.POST("/:id/lead", cc.CaptureLead)
	checkout.POST("/:id/payment", cc.StartPayment)
	checkout.GET("/:id", cc.Snapshot)
	checkout.DELETE("/:id", cc.Dismiss)
	return r
}

func pendingGateway() *mockGateway {
	return &mockGateway{
		createFn: func(_ context.Context, _ models.PaymentIntent) (*models.PixPayment, error) {
			return &models.PixPayment{
				ID:     777,
				Status: models.StatusPending,
				QRCode: "00020126pixpayload",
			}, nil
		},
		statusFn: func(_ context.Context, id int64) (*models.PixPayment, error) {
			return &models.PixPayment{ID: id, Status: models.StatusPending}, nil
		},
	}
}

func openAttempt(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := postJSON(r, "/checkout", gin.H{"utm_source": "facebook"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["attempt_id"])
	return resp["attempt_id"]
}

func TestCheckoutFlow(t *testing.T) {
	r := checkoutRouter(pendingGateway())
	id := openAttempt(t, r)

	// Payment before lead is a precondition violation.
	w := postJSON(r, "/checkout/"+id+"/payment", gin.H{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(r, "/checkout/"+id+"/lead", gin.H{
		"whatsapp":      "(11) 98888-7777",
		"business_name": "Clínica Sorriso",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/checkout/"+id+"/payment", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "awaiting_payer_action")
	assert.Contains(t, w.Body.String(), "00020126pixpayload")

	req := httptest.NewRequest(http.MethodGet, "/checkout/"+id, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap services.AttemptSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.HasLead)
	assert.Equal(t, services.StateAwaitingPayerAction, snap.Payment.State)
	assert.Empty(t, snap.RedirectURL)
}

func TestCheckout_LeadValidation(t *testing.T) {
	r := checkoutRouter(pendingGateway())
	id := openAttempt(t, r)

	w := postJSON(r, "/checkout/"+id+"/lead", gin.H{"whatsapp": "11988887777"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "business_name is required")
}

func TestCheckout_UnknownAttemptIs404(t *testing.T) {
	r := checkoutRouter(pendingGateway())

	assert.Equal(t, http.StatusNotFound, postJSON(r, "/checkout/missing/lead", gin.H{
		"whatsapp":      "11988887777",
		"business_name": "X",
	}).Code)
	assert.Equal(t, http.StatusNotFound, postJSON(r, "/checkout/missing/payment", gin.H{}).Code)

	req := httptest.NewRequest(http.MethodGet, "/checkout/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_Dismiss(t *testing.T) {
	r := checkoutRouter(pendingGateway())
	id := openAttempt(t, r)

	req := httptest.NewRequest(http.MethodDelete, "/checkout/"+id, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/checkout/"+id, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
