package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/controllers"
	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/services"
)

func funnelRouter(repo *memoryEventRepo) *gin.Engine {
	funnel := services.NewFunnelService(repo, nil, nil, zap.NewNop())
	fc := &controllers.FunnelController{
		Funnel:   funnel,
		Analyzer: services.NewMockAnalyzer(),
		Logger:   zap.NewNop(),
	}

	r := gin.New()
	r.POST("/events", fc.RecordEvent)
	r.POST("/analyze", fc.Analyze)
	return r
}

func TestRecordEvent(t *testing.T) {
	repo := &memoryEventRepo{}
	r := funnelRouter(repo)

	w := postJSON(r, "/events", gin.H{
		"stage":      "video_view",
		"session_id": "sess-1",
		"utm_source": "instagram",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, repo.events, 1)
	assert.Equal(t, models.StageVideoView, repo.events[0].Stage)
	assert.Equal(t, "instagram", repo.events[0].UTMSource)
}

func TestRecordEvent_StageRequired(t *testing.T) {
	r := funnelRouter(&memoryEventRepo{})
	w := postJSON(r, "/events", gin.H{"session_id": "sess-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze(t *testing.T) {
	repo := &memoryEventRepo{}
	r := funnelRouter(repo)

	w := postJSON(r, "/analyze", gin.H{
		"name":       "Clínica Sorriso",
		"category":   "dentista",
		"city":       "Campinas",
		"session_id": "sess-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotZero(t, result.Score)
	assert.NotEmpty(t, result.CompetitorsList)

	// A served report marks the report_generated stage.
	require.Len(t, repo.events, 1)
	assert.Equal(t, models.StageReportGenerated, repo.events[0].Stage)
	assert.Equal(t, "sess-1", repo.events[0].SessionID)
}

func TestAnalyze_MissingFields(t *testing.T) {
	r := funnelRouter(&memoryEventRepo{})
	w := postJSON(r, "/analyze", gin.H{"name": "Clínica Sorriso"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
