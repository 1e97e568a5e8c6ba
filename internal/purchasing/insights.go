package purchasing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	insightsTTL   = 10 * time.Minute
	insightsLimit = 5
)

// Insights summarises purchasing activity for a period: the suppliers with
// the highest approved spend and the most ordered items.
type Insights struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	TopSuppliers []SupplierSpend `json:"top_suppliers"`
	TopItems     []ItemVolume    `json:"top_items"`
}

// InsightsCache caches insight aggregations in Redis. Concurrent misses for
// the same period collapse into a single repository query via singleflight.
type InsightsCache struct {
	client *redis.Client
	group  singleflight.Group
}

// NewInsightsCache constructs an InsightsCache.
func NewInsightsCache(client *redis.Client) *InsightsCache {
	return &InsightsCache{client: client}
}

func (c *InsightsCache) get(ctx context.Context, key string, load func() (Insights, error)) (Insights, error) {
	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var result Insights
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		result, err := load()
		if err != nil {
			return Insights{}, err
		}
		if data, err := json.Marshal(result); err == nil {
			_ = c.client.Set(ctx, key, data, insightsTTL).Err()
		}
		return result, nil
	})
	if err != nil {
		return Insights{}, err
	}
	return value.(Insights), nil
}

// Insights returns period aggregations. A zero "to" defaults to now and a
// zero "from" to ninety days before "to".
func (s *Service) Insights(ctx context.Context, from, to time.Time) (Insights, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -90)
	}

	load := func() (Insights, error) {
		suppliers, err := s.repo.TopSuppliers(ctx, from, to, insightsLimit)
		if err != nil {
			return Insights{}, err
		}
		items, err := s.repo.TopItems(ctx, from, to, insightsLimit)
		if err != nil {
			return Insights{}, err
		}
		return Insights{From: from, To: to, TopSuppliers: suppliers, TopItems: items}, nil
	}

	if s.insights == nil {
		return load()
	}
	key := fmt.Sprintf("insights:%d:%d", from.Unix(), to.Unix())
	return s.insights.get(ctx, key, load)
}
