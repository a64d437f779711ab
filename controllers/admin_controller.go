package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/services"
)

// AdminController serves the funnel dashboard and the UTM generator.
type AdminController struct {
	Funnel *services.FunnelService
	Logger *zap.Logger
}

// Metrics returns stage counts, conversion rate and the UTM breakdown.
func (ac *AdminController) Metrics(c *gin.Context) {
	metrics, err := ac.Funnel.Metrics(c.Request.Context())
	if err != nil {
		ac.Logger.Error("metrics aggregation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load metrics"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// Events pages through the funnel event log.
func (ac *AdminController) Events(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	filter := models.FunnelEventFilter{
		Stage:    c.Query("stage"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	events, total, err := ac.Funnel.List(c.Request.Context(), filter)
	if err != nil {
		ac.Logger.Error("event listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"page":   filter.Page,
	})
}

type buildUTMRequest struct {
	BaseURL     string `json:"base_url" binding:"required"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
}

// BuildUTM assembles a campaign URL from the generator form.
func (ac *AdminController) BuildUTM(c *gin.Context) {
	var req buildUTMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_url is required"})
		return
	}

	utm := models.UTMParams{
		Source:   req.UTMSource,
		Medium:   req.UTMMedium,
		Campaign: req.UTMCampaign,
		Term:     req.UTMTerm,
		Content:  req.UTMContent,
	}

	built, err := services.BuildUTMURL(req.BaseURL, utm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_url must be absolute"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": built})
}

// UTMPresets lists the one-click campaign templates.
func (ac *AdminController) UTMPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": services.UTMPresets})
}
