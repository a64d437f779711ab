package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
)

// Analyzer produces the visibility report for a business. The real analysis
// engine is an opaque external service; when it is unavailable the funnel
// falls back to a deterministic offline report rather than blocking leads.
type Analyzer interface {
	Analyze(ctx context.Context, data models.BusinessData) (*models.AnalysisResult, error)
}

// averageTicket is the assumed revenue per converted dental patient used in
// the lost-revenue estimate.
const averageTicket = 450.0

type mockAnalyzer struct{}

// NewMockAnalyzer returns the offline analyzer. Results are deterministic per
// city so the same business always sees the same report.
func NewMockAnalyzer() Analyzer {
	return mockAnalyzer{}
}

func cityHash(city string) int {
	sum := 0
	for _, r := range city {
		sum += int(r)
	}
	return sum
}

func (mockAnalyzer) Analyze(_ context.Context, data models.BusinessData) (*models.AnalysisResult, error) {
	hash := cityHash(data.City)
	basePopulation := 40000 + hash*150
	volume := int(float64(basePopulation) * 0.008)
	lostRevenue := float64(volume) * 0.07 * averageTicket

	return &models.AnalysisResult{
		Score:                30 + hash%20,
		MonthlySearchVolume:  volume,
		EstimatedLostRevenue: int(lostRevenue + 0.5),
		VisibilityRank:       "Baixa",
		CompetitorsCount:     5 + hash%6,
		CompetitorsList: []models.Competitor{
			{Name: "Dr. Silva - Especialista em " + data.Category, Rating: "5.0", Reviews: 331, Address: "Centro Médico", Status: "Aberto agora"},
			{Name: "OdontoPremium " + data.City, Rating: "4.9", Reviews: 215, Address: "Jd. Europa", Status: "Fechado"},
			{Name: "Clínica Sorriso Perfeito", Rating: "4.8", Reviews: 120, Address: "Shopping", Status: "Aberto agora"},
		},
		TechScore: 32,
		TechIssues: []string{
			"Site oficial não identificado pelas IAs",
			"Falta de fotos de casos clínicos marcadas",
			"Ausência de cadastro no Google Maps Otimizado",
			"Domínio de baixa autoridade médica",
		},
	}, nil
}

type remoteAnalyzer struct {
	url        string
	httpClient *http.Client
	fallback   Analyzer
	logger     *zap.Logger
}

// NewRemoteAnalyzer calls an external analysis service and falls back to the
// offline report when the call fails or returns an unusable result.
func NewRemoteAnalyzer(url string, logger *zap.Logger) Analyzer {
	return &remoteAnalyzer{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		fallback:   NewMockAnalyzer(),
		logger:     logger,
	}
}

func (a *remoteAnalyzer) Analyze(ctx context.Context, data models.BusinessData) (*models.AnalysisResult, error) {
	result, err := a.analyzeRemote(ctx, data)
	if err != nil {
		a.logger.Warn("remote analysis failed, serving offline report",
			zap.String("business", data.Name),
			zap.Error(err),
		)
		return a.fallback.Analyze(ctx, data)
	}
	return result, nil
}

func (a *remoteAnalyzer) analyzeRemote(ctx context.Context, data models.BusinessData) (*models.AnalysisResult, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analyzer returned %s", resp.Status)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if result.Score == 0 && result.MonthlySearchVolume == 0 {
		return nil, fmt.Errorf("analyzer returned an empty report")
	}

	// Dental-niche sanity cap on the revenue estimate.
	if result.EstimatedLostRevenue > 80000 {
		result.EstimatedLostRevenue = int(float64(result.EstimatedLostRevenue) * 0.40)
	}
	if len(result.TechIssues) == 0 {
		result.TechIssues = []string{
			"Ausência de dados estruturados para IA",
			"Carregamento lento de imagens",
		}
	}
	if result.TechScore == 0 {
		result.TechScore = 45
	}
	return &result, nil
}
