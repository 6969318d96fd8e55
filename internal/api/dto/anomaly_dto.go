package dto

import (
	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// AnomalyResponse is one detector finding.
type AnomalyResponse struct {
	Type        domain.AnomalyType `json:"type"`
	Severity    domain.Severity    `json:"severity"`
	Description string             `json:"description"`
	Details     domain.Details     `json:"details"`
}

// NewAnomaliesResponse maps findings, keeping their order.
func NewAnomaliesResponse(found []domain.Anomaly) []AnomalyResponse {
	items := make([]AnomalyResponse, 0, len(found))
	for _, a := range found {
		details := a.Details
		if details == nil {
			details = domain.Details{}
		}
		items = append(items, AnomalyResponse{
			Type:        a.Type,
			Severity:    a.Severity,
			Description: a.Description,
			Details:     details,
		})
	}
	return items
}
