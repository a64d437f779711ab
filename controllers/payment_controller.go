package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/gateway"
	"github.com/JonasKash/sok/models"
)

// PaymentController proxies the raw gateway operations used by the landing
// page's direct PIX flow.
type PaymentController struct {
	Gateway gateway.Port
	Logger  *zap.Logger
}

type createPixPaymentRequest struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount" binding:"required"`
	Description       string          `json:"description"`
	Payer             struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"payer"`
}

// CreatePixPayment creates a standalone PIX payment and returns the QR
// payload for display.
func (pc *PaymentController) CreatePixPayment(c *gin.Context) {
	var req createPixPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	intent := models.PaymentIntent{
		Amount:         req.TransactionAmount,
		Description:    req.Description,
		PayerEmail:     req.Payer.Email,
		PayerFirstName: req.Payer.FirstName,
		PayerLastName:  req.Payer.LastName,
	}

	payment, err := pc.Gateway.CreatePayment(c.Request.Context(), intent)
	if err != nil {
		pc.respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 payment.ID,
		"status":             payment.Status,
		"qr_code":            payment.QRCode,
		"qr_code_base64":     payment.QRCodeBase64,
		"qr_image_url":       payment.QRImageURL(),
		"ticket_url":         payment.TicketURL,
		"date_of_expiration": payment.DateOfExpiration,
	})
}

// GetPaymentStatus re-fetches a payment's status by gateway id.
func (pc *PaymentController) GetPaymentStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	payment, err := pc.Gateway.GetPaymentStatus(c.Request.Context(), id)
	if err != nil {
		pc.respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            payment.ID,
		"status":        payment.Status,
		"status_detail": payment.StatusDetail,
	})
}

// respondGatewayError maps the gateway error taxonomy onto HTTP statuses
// with canned messages. Raw gateway payloads stay in the server logs.
func (pc *PaymentController) respondGatewayError(c *gin.Context, err error) {
	var ve *gateway.ValidationError
	var ne *gateway.NetworkError
	var ge *gateway.GatewayError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": gateway.UserMessage(err)})
	case errors.As(err, &ne):
		pc.Logger.Warn("gateway unreachable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": gateway.UserMessage(err)})
	case errors.As(err, &ge):
		pc.Logger.Error("gateway rejected request",
			zap.Int("status_code", ge.StatusCode),
			zap.String("gateway_message", ge.RawMessage),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": gateway.UserMessage(err)})
	default:
		pc.Logger.Error("payment operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
