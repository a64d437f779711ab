package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/controllers"
	"github.com/JonasKash/sok/gateway"
	"github.com/JonasKash/sok/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock gateway ---

type mockGateway struct {
	createFn func(ctx context.Context, intent models.PaymentIntent) (*models.PixPayment, error)
	statusFn func(ctx context.Context, id int64) (*models.PixPayment, error)
}

func (m *mockGateway) CreatePayment(ctx context.Context, intent models.PaymentIntent) (*models.PixPayment, error) {
	return m.createFn(ctx, intent)
}

func (m *mockGateway) GetPaymentStatus(ctx context.Context, id int64) (*models.PixPayment, error) {
	return m.statusFn(ctx, id)
}

func paymentRouter(gw gateway.Port) *gin.Engine {
	r := gin.New()
	pc := &controllers.PaymentController{Gateway: gw, Logger: zap.NewNop()}
	r.POST("/create-pix-payment", pc.CreatePixPayment)
	r.GET("/payment-status/:id", pc.GetPaymentStatus)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePixPayment_Success(t *testing.T) {
	gw := &mockGateway{
		createFn: func(_ context.Context, intent models.PaymentIntent) (*models.PixPayment, error) {
			assert.True(t, intent.Amount.Equal(decimal.NewFromFloat(29.90)))
			return &models.PixPayment{
				ID:     12345,
				Status: models.StatusPending,
				QRCode: "00020126pixpayload",
			}, nil
		},
	}
	r := paymentRouter(gw)

	w := postJSON(r, "/create-pix-payment", gin.H{"transaction_amount": 29.90})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(12345), resp["id"])
	assert.Equal(t, "00020126pixpayload", resp["qr_code"])
	assert.NotEmpty(t, resp["qr_image_url"], "a QR image source is always derivable from the payload")
}

func TestCreatePixPayment_ValidationMapsTo400(t *testing.T) {
	gw := &mockGateway{
		createFn: func(_ context.Context, _ models.PaymentIntent) (*models.PixPayment, error) {
			return nil, &gateway.ValidationError{Field: "amount", Reason: "must be greater than zero"}
		},
	}
	w := postJSON(paymentRouter(gw), "/create-pix-payment", gin.H{"transaction_amount": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), gateway.MsgInvalidData)
}

func TestCreatePixPayment_NetworkMapsTo502(t *testing.T) {
	gw := &mockGateway{
		createFn: func(_ context.Context, _ models.PaymentIntent) (*models.PixPayment, error) {
			return nil, &gateway.NetworkError{Err: context.DeadlineExceeded}
		},
	}
	w := postJSON(paymentRouter(gw), "/create-pix-payment", gin.H{"transaction_amount": 29.90})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), gateway.MsgUnreachable)
}

func TestCreatePixPayment_RawGatewayMessageNeverLeaks(t *testing.T) {
	gw := &mockGateway{
		createFn: func(_ context.Context, _ models.PaymentIntent) (*models.PixPayment, error) {
			return nil, &gateway.GatewayError{StatusCode: 400, RawMessage: "cc_rejected_internal_detail"}
		},
	}
	w := postJSON(paymentRouter(gw), "/create-pix-payment", gin.H{"transaction_amount": 29.90})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), gateway.MsgRejected)
	assert.NotContains(t, w.Body.String(), "cc_rejected_internal_detail")
}

func TestGetPaymentStatus_Success(t *testing.T) {
	gw := &mockGateway{
		statusFn: func(_ context.Context, id int64) (*models.PixPayment, error) {
			assert.Equal(t, int64(12345), id)
			return &models.PixPayment{ID: id, Status: models.StatusApproved, StatusDetail: "accredited"}, nil
		},
	}
	r := paymentRouter(gw)

	req := httptest.NewRequest(http.MethodGet, "/payment-status/12345", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"approved"`)
}

func TestGetPaymentStatus_NonNumericID(t *testing.T) {
	r := paymentRouter(&mockGateway{})

	req := httptest.NewRequest(http.MethodGet, "/payment-status/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
