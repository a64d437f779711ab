package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/JonasKash/sok/models"
)

// FunnelEventRepository persists funnel stage markers and serves the admin
// dashboard aggregates.
type FunnelEventRepository interface {
	Create(ctx context.Context, event *models.FunnelEvent) error
	List(ctx context.Context, filter models.FunnelEventFilter) ([]models.FunnelEvent, int64, error)
	StageCounts(ctx context.Context) (map[string]int64, error)
	UTMStats(ctx context.Context) (map[string]int64, error)
}

type funnelEventRepository struct {
	db *gorm.DB
}

func NewFunnelEventRepository(db *gorm.DB) FunnelEventRepository {
	return &funnelEventRepository{db: db}
}

func (r *funnelEventRepository) Create(ctx context.Context, event *models.FunnelEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("insert funnel event: %w", err)
	}
	return nil
}

func (r *funnelEventRepository) List(ctx context.Context, filter models.FunnelEventFilter) ([]models.FunnelEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FunnelEvent{})
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("session_id ILIKE ? OR utm_source ILIKE ? OR utm_campaign ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count funnel events: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var events []models.FunnelEvent
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list funnel events: %w", err)
	}
	return events, total, nil
}

type stageCountRow struct {
	Stage string
	Count int64
}

func (r *funnelEventRepository) StageCounts(ctx context.Context) (map[string]int64, error) {
	var rows []stageCountRow
	err := r.db.WithContext(ctx).
		Model(&models.FunnelEvent{}).
		Select("stage, COUNT(*) AS count").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate stage counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}
	return counts, nil
}

type utmStatRow struct {
	Source string
	Count  int64
}

// UTMStats groups events by utm_source; rows without attribution are bucketed
// under "(direct)".
func (r *funnelEventRepository) UTMStats(ctx context.Context) (map[string]int64, error) {
	var rows []utmStatRow
	err := r.db.WithContext(ctx).
		Model(&models.FunnelEvent{}).
		Select("COALESCE(NULLIF(utm_source, ''), '(direct)') AS source, COUNT(*) AS count").
		Group("source").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate utm stats: %w", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Source] = row.Count
	}
	return stats, nil
}
