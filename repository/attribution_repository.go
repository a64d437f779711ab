package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonasKash/sok/models"
)

// Attribution snapshots expire with the marketing session they describe.
const attributionTTL = 30 * 24 * time.Hour

// AttributionRepository caches per-session attribution so a returning visitor
// keeps the UTM bundle captured on first touch.
type AttributionRepository interface {
	Save(ctx context.Context, attribution models.AttributionContext) error
	Get(ctx context.Context, sessionID string) (*models.AttributionContext, error)
}

type attributionRepository struct {
	client *redis.Client
}

func NewAttributionRepository(client *redis.Client) AttributionRepository {
	return &attributionRepository{client: client}
}

func attributionKey(sessionID string) string {
	return "attribution:" + sessionID
}

func (r *attributionRepository) Save(ctx context.Context, attribution models.AttributionContext) error {
	data, err := json.Marshal(attribution)
	if err != nil {
		return fmt.Errorf("marshal attribution: %w", err)
	}
	if err := r.client.Set(ctx, attributionKey(attribution.SessionID), data, attributionTTL).Err(); err != nil {
		return fmt.Errorf("save attribution: %w", err)
	}
	return nil
}

// Get returns nil without error when the session has no stored attribution.
func (r *attributionRepository) Get(ctx context.Context, sessionID string) (*models.AttributionContext, error) {
	data, err := r.client.Get(ctx, attributionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load attribution: %w", err)
	}

	var attribution models.AttributionContext
	if err := json.Unmarshal(data, &attribution); err != nil {
		return nil, fmt.Errorf("decode attribution: %w", err)
	}
	return &attribution, nil
}
