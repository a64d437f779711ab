package services_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/services"
)

func clinic() models.BusinessData {
	return models.BusinessData{Name: "Clínica Sorriso", Category: "dentista", City: "Campinas"}
}

func TestMockAnalyzer_Deterministic(t *testing.T) {
	analyzer := services.NewMockAnalyzer()

	first, err := analyzer.Analyze(context.Background(), clinic())
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), clinic())
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score, "same city yields the same report")
	assert.Equal(t, first.MonthlySearchVolume, second.MonthlySearchVolume)
	assert.Equal(t, first.EstimatedLostRevenue, second.EstimatedLostRevenue)

	assert.GreaterOrEqual(t, first.Score, 30)
	assert.Less(t, first.Score, 50)
	assert.Equal(t, "Baixa", first.VisibilityRank)
	assert.NotEmpty(t, first.CompetitorsList)
	assert.NotEmpty(t, first.TechIssues)
}

func TestMockAnalyzer_VariesByCity(t *testing.T) {
	analyzer := services.NewMockAnalyzer()

	campinas, _ := analyzer.Analyze(context.Background(), clinic())
	other := clinic()
	other.City = "São Paulo"
	saoPaulo, _ := analyzer.Analyze(context.Background(), other)

	assert.NotEqual(t, campinas.MonthlySearchVolume, saoPaulo.MonthlySearchVolume)
}

func TestRemoteAnalyzer_UsesRemoteResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"score": 62,
			"monthly_search_volume": 900,
			"estimated_lost_revenue": 12000,
			"visibility_rank": "Média",
			"tech_score": 70,
			"tech_issues": ["Meta description ausente"]
		}`)
	}))
	defer srv.Close()

	analyzer := services.NewRemoteAnalyzer(srv.URL, zap.NewNop())
	result, err := analyzer.Analyze(context.Background(), clinic())
	require.NoError(t, err)
	assert.Equal(t, 62, result.Score)
	assert.Equal(t, "Média", result.VisibilityRank)
}

func TestRemoteAnalyzer_CapsLostRevenue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"score": 50, "monthly_search_volume": 1000, "estimated_lost_revenue": 200000}`)
	}))
	defer srv.Close()

	analyzer := services.NewRemoteAnalyzer(srv.URL, zap.NewNop())
	result, err := analyzer.Analyze(context.Background(), clinic())
	require.NoError(t, err)
	assert.Equal(t, 80000, result.EstimatedLostRevenue)
}

func TestRemoteAnalyzer_FallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	analyzer := services.NewRemoteAnalyzer(srv.URL, zap.NewNop())
	result, err := analyzer.Analyze(context.Background(), clinic())
	require.NoError(t, err, "remote failure falls back to the offline report")
	assert.Equal(t, "Baixa", result.VisibilityRank)
}

func TestRemoteAnalyzer_FallsBackOnEmptyReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	analyzer := services.NewRemoteAnalyzer(srv.URL, zap.NewNop())
	result, err := analyzer.Analyze(context.Background(), clinic())
	require.NoError(t, err)
	assert.NotZero(t, result.Score)
}
