package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/services"
)

// FunnelController ingests funnel events and serves the analysis endpoint.
type FunnelController struct {
	Funnel   *services.FunnelService
	Analyzer services.Analyzer
	Logger   *zap.Logger
}

type recordEventRequest struct {
	Stage       string  `json:"stage" binding:"required"`
	SessionID   string  `json:"session_id"`
	LeadID      *string `json:"lead_id"`
	UTMSource   string  `json:"utm_source"`
	UTMMedium   string  `json:"utm_medium"`
	UTMCampaign string  `json:"utm_campaign"`
	UTMTerm     string  `json:"utm_term"`
	UTMContent  string  `json:"utm_content"`
	Metadata    *string `json:"metadata"`
}

// RecordEvent ingests one funnel stage marker from the front end.
func (fc *FunnelController) RecordEvent(c *gin.Context) {
	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	event := &models.FunnelEvent{
		Stage:     req.Stage,
		SessionID: req.SessionID,
		LeadID:    req.LeadID,
		Metadata:  req.Metadata,
	}
	event.SetUTM(models.UTMParams{
		Source:   req.UTMSource,
		Medium:   req.UTMMedium,
		Campaign: req.UTMCampaign,
		Term:     req.UTMTerm,
		Content:  req.UTMContent,
	})

	if err := fc.Funnel.Record(c.Request.Context(), event); err != nil {
		fc.Logger.Error("funnel event not recorded", zap.String("stage", req.Stage), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": event.ID})
}

// Analyze runs the visibility analysis and records a report_generated event.
func (fc *FunnelController) Analyze(c *gin.Context) {
	var req struct {
		models.BusinessData
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, category and city are required"})
		return
	}

	result, err := fc.Analyzer.Analyze(c.Request.Context(), req.BusinessData)
	if err != nil {
		fc.Logger.Error("analysis failed", zap.String("business", req.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	event := &models.FunnelEvent{
		Stage:     models.StageReportGenerated,
		SessionID: req.SessionID,
	}
	if err := fc.Funnel.Record(c.Request.Context(), event); err != nil {
		fc.Logger.Warn("report_generated event not recorded", zap.Error(err))
	}

	c.JSON(http.StatusOK, result)
}
