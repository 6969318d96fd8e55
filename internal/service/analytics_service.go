package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// AnalyticsService builds distributions and trend series from grouped counts.
type AnalyticsService struct {
	complaints repository.ComplaintRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(complaints repository.ComplaintRepository) *AnalyticsService {
	return &AnalyticsService{complaints: complaints}
}

// Overview returns totals, distributions and the average resolution time.
func (s *AnalyticsService) Overview(ctx context.Context) (*domain.Overview, error) {
	total, err := s.complaints.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}
	statusRows, err := s.complaints.GroupCountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("group by status: %w", err)
	}
	categoryRows, err := s.complaints.GroupCountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	blockRows, err := s.complaints.GroupCountByBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("group by block: %w", err)
	}
	avg, err := s.complaints.AverageResolutionHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("average resolution: %w", err)
	}

	return &domain.Overview{
		TotalComplaints:        total,
		StatusDistribution:     toDistribution(statusRows),
		CategoryDistribution:   toDistribution(categoryRows),
		BlockDistribution:      toDistribution(blockRows),
		AverageResolutionHours: avg,
	}, nil
}

// Trend returns complaint counts per bucket in the order the store yields them.
func (s *AnalyticsService) Trend(ctx context.Context, granularity domain.Granularity) ([]domain.TrendPoint, error) {
	if !granularity.Valid() {
		return nil, apperrors.NewValidationError("unsupported granularity", map[string]any{
			"granularity": string(granularity),
			"allowed":     []string{"daily", "weekly", "monthly", "hourly"},
		})
	}
	points, err := s.complaints.Trend(ctx, granularity)
	if err != nil {
		return nil, fmt.Errorf("%s trend: %w", granularity, err)
	}
	result := make([]domain.TrendPoint, 0, len(points))
	return append(result, points...), nil
}

// TopUsers returns complainants ranked by complaint count, highest first.
func (s *AnalyticsService) TopUsers(ctx context.Context) ([]domain.TopUser, error) {
	rows, err := s.complaints.TopUsersRanked(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank users: %w", err)
	}
	result := make([]domain.TopUser, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.TopUser{UserID: row.UserID, ComplaintCount: row.Count})
	}
	return result, nil
}

func toDistribution(rows []domain.GroupCount) map[string]int64 {
	dist := make(map[string]int64, len(rows))
	for _, row := range rows {
		dist[row.Label] += row.Count
	}
	return dist
}
