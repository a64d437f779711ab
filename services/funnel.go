package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/repository"
)

// EventPublisher pushes funnel events onto the stream consumed by
// downstream analytics.
type EventPublisher interface {
	PublishFunnelEvent(ctx context.Context, event *models.FunnelEvent) error
}

// FunnelService records stage markers and serves the admin aggregates.
// Persistence is the one load-bearing write; the tracking webhook and the
// event stream are best-effort fan-out.
type FunnelService struct {
	repo      repository.FunnelEventRepository
	tracking  *WebhookClient
	publisher EventPublisher
	logger    *zap.Logger
}

func NewFunnelService(repo repository.FunnelEventRepository, tracking *WebhookClient, publisher EventPublisher, logger *zap.Logger) *FunnelService {
	return &FunnelService{
		repo:      repo,
		tracking:  tracking,
		publisher: publisher,
		logger:    logger,
	}
}

// Record persists one funnel event, then fans it out. Fan-out failures are
// logged and swallowed; a flaky tracking sink must never cost an event row.
func (s *FunnelService) Record(ctx context.Context, event *models.FunnelEvent) error {
	if err := s.repo.Create(ctx, event); err != nil {
		return err
	}

	if s.tracking != nil {
		if err := s.tracking.Post(ctx, event); err != nil {
			s.logger.Warn("tracking webhook delivery failed",
				zap.String("stage", event.Stage),
				zap.Error(err),
			)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishFunnelEvent(ctx, event); err != nil {
			s.logger.Warn("funnel event publish failed",
				zap.String("stage", event.Stage),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Metrics builds the admin dashboard aggregate. Stages with no events are
// reported as zero so the funnel chart always shows every step.
func (s *FunnelService) Metrics(ctx context.Context) (*models.FunnelMetrics, error) {
	counts, err := s.repo.StageCounts(ctx)
	if err != nil {
		return nil, err
	}
	utmStats, err := s.repo.UTMStats(ctx)
	if err != nil {
		return nil, err
	}

	stageCounts := make(map[string]int64, len(models.KnownStages))
	for _, stage := range models.KnownStages {
		stageCounts[stage] = counts[stage]
	}

	var rate float64
	if landings := stageCounts[models.StageLanding]; landings > 0 {
		rate = float64(stageCounts[models.StagePaymentConfirmed]) / float64(landings)
	}

	return &models.FunnelMetrics{
		StageCounts:    stageCounts,
		ConversionRate: rate,
		UTMStats:       utmStats,
	}, nil
}

// List pages through recorded events for the admin event log.
func (s *FunnelService) List(ctx context.Context, filter models.FunnelEventFilter) ([]models.FunnelEvent, int64, error) {
	return s.repo.List(ctx, filter)
}
