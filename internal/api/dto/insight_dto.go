package dto

import (
	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// InsightRequest payload.
type InsightRequest struct {
	Scenario string `json:"scenario"`
	Context  string `json:"context"`
}

// InsightResponse carries the model explanation.
type InsightResponse struct {
	Scenario    string `json:"scenario"`
	Explanation string `json:"explanation"`
}

// NewInsightResponse maps a domain insight.
func NewInsightResponse(i *domain.Insight) InsightResponse {
	return InsightResponse{Scenario: i.Scenario, Explanation: i.Explanation}
}
