package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/services"
)

// CheckoutController drives the attempt lifecycle: open, lead, payment,
// snapshot, dismiss.
type CheckoutController struct {
	Manager *services.CheckoutManager
	Logger  *zap.Logger
}

type openCheckoutRequest struct {
	SessionID   string `json:"session_id"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
}

// Open starts a checkout attempt and captures attribution.
func (cc *CheckoutController) Open(c *gin.Context) {
	var req openCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	attribution := models.AttributionContext{
		SessionID: req.SessionID,
		UTM: models.UTMParams{
			Source:   req.UTMSource,
			Medium:   req.UTMMedium,
			Campaign: req.UTMCampaign,
			Term:     req.UTMTerm,
			Content:  req.UTMContent,
		},
	}

	attempt, err := cc.Manager.Open(c.Request.Context(), attribution)
	if err != nil {
		cc.Logger.Error("checkout open failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not open checkout"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"attempt_id": attempt.ID,
		"session_id": attempt.Attribution.SessionID,
	})
}

type captureLeadRequest struct {
	WhatsApp         string `json:"whatsapp" binding:"required"`
	BusinessName     string `json:"business_name" binding:"required"`
	BusinessCategory string `json:"business_category"`
	City             string `json:"city"`
}

// CaptureLead records the contact form submitted before payment.
func (cc *CheckoutController) CaptureLead(c *gin.Context) {
	var req captureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	lead := &models.Lead{
		WhatsApp:         req.WhatsApp,
		BusinessName:     req.BusinessName,
		BusinessCategory: req.BusinessCategory,
		City:             req.City,
	}

	err := cc.Manager.CaptureLead(c.Request.Context(), c.Param("id"), lead)
	switch {
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout not found"})
	case errors.Is(err, services.ErrInvalidLead):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lead is missing required fields"})
	case err != nil:
		cc.Logger.Error("lead capture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save lead"})
	default:
		c.JSON(http.StatusCreated, gin.H{"lead_id": lead.ID.String()})
	}
}

// StartPayment creates the PIX session for an attempt.
func (cc *CheckoutController) StartPayment(c *gin.Context) {
	session, err := cc.Manager.StartPayment(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout not found"})
		return
	case errors.Is(err, services.ErrLeadRequired):
		c.JSON(http.StatusConflict, gin.H{"error": "Lead must be captured before payment"})
		return
	}
	// Creation failures leave the session in an errored state whose canned
	// message is part of the snapshot, so the response is the snapshot
	// either way.
	if session == nil {
		cc.Logger.Error("payment start failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start payment"})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// Snapshot serves the attempt's current state for front-end polling.
func (cc *CheckoutController) Snapshot(c *gin.Context) {
	snap, err := cc.Manager.Snapshot(c.Param("id"))
	if errors.Is(err, services.ErrAttemptNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Dismiss abandons an attempt and stops its polling.
func (cc *CheckoutController) Dismiss(c *gin.Context) {
	if err := cc.Manager.Dismiss(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
