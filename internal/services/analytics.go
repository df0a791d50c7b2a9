package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecotrack/waste-server/internal/analytics"
	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AnalyticsService computes windowed report summaries, with a short-lived
// Redis cache in front of the pure aggregator. Cache failures degrade to a
// direct computation; they are never surfaced to the caller.
type AnalyticsService struct {
	reports *ReportService
	cache   *redis.Client
	ttl     time.Duration
	logger  *zap.SugaredLogger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(reports *ReportService, cache *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *AnalyticsService {
	return &AnalyticsService{reports: reports, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(w analytics.Window) string {
	return "analytics:summary:" + string(w)
}

// Summary returns the aggregation for the requested window.
func (s *AnalyticsService) Summary(ctx context.Context, w analytics.Window) (*analytics.Summary, error) {
	if !w.Valid() {
		return nil, apperr.PreconditionFailed("unknown analytics window %q", w)
	}

	key := cacheKey(w)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached analytics.Summary
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	now := time.Now().UTC()
	reports, err := s.reports.ListCreatedSince(ctx, w.Start(now))
	if err != nil {
		return nil, err
	}

	summary := analytics.Summarize(reports, w, now)

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warnw("Failed to cache analytics summary", "window", w, "error", err)
			}
		}
	}

	return &summary, nil
}

// Invalidate drops all cached windows. Handlers call this after any report
// mutation so summaries never serve stale counts past the TTL.
func (s *AnalyticsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{
		cacheKey(analytics.WindowWeek),
		cacheKey(analytics.WindowMonth),
		cacheKey(analytics.WindowYear),
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warnw("Failed to invalidate analytics cache", "error", err)
	}
}
