package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
)

// StatsService reads the backend's aggregates.
type StatsService struct {
	source StatsSource
	logger *slog.Logger
}

func NewStatsService(source StatsSource, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{source: source, logger: logger}
}

// Refresh fetches the current aggregates. Missing breakdowns are returned as
// empty maps.
func (s *StatsService) Refresh(ctx context.Context) (feedback.Stats, error) {
	stats, err := s.source.GetStats(ctx)
	if err != nil {
		return feedback.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	normalized := stats.Normalize()
	if !normalized.Consistent() {
		s.logger.Debug("stats breakdown does not sum to total", "total", normalized.Total)
	}
	return normalized, nil
}
