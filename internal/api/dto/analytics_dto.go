package dto

import (
	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// OverviewResponse summarises the complaint population.
type OverviewResponse struct {
	TotalComplaints        int64            `json:"total_complaints"`
	StatusDistribution     map[string]int64 `json:"status_distribution"`
	CategoryDistribution   map[string]int64 `json:"category_distribution"`
	BlockDistribution      map[string]int64 `json:"block_distribution"`
	AverageResolutionHours *float64         `json:"average_resolution_time_in_hours"`
}

// TrendPointResponse is one bucket of a trend series.
type TrendPointResponse struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// TopUserResponse ranks a complainant.
type TopUserResponse struct {
	UserID         int64 `json:"user_id"`
	ComplaintCount int64 `json:"complaint_count"`
}

// NewOverviewResponse maps the domain overview.
func NewOverviewResponse(o *domain.Overview) OverviewResponse {
	return OverviewResponse{
		TotalComplaints:        o.TotalComplaints,
		StatusDistribution:     o.StatusDistribution,
		CategoryDistribution:   o.CategoryDistribution,
		BlockDistribution:      o.BlockDistribution,
		AverageResolutionHours: o.AverageResolutionHours,
	}
}

// NewTrendResponse maps trend points.
func NewTrendResponse(points []domain.TrendPoint) []TrendPointResponse {
	items := make([]TrendPointResponse, 0, len(points))
	for _, p := range points {
		items = append(items, TrendPointResponse{Bucket: p.Bucket, Count: p.Count})
	}
	return items
}

// NewTopUsersResponse maps ranked users.
func NewTopUsersResponse(users []domain.TopUser) []TopUserResponse {
	items := make([]TopUserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, TopUserResponse{UserID: u.UserID, ComplaintCount: u.ComplaintCount})
	}
	return items
}
