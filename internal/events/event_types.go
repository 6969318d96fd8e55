package events

import (
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAnomaliesDetected EventType = "anomalies_detected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AnomaliesDetectedPayload carries the findings of one scheduled scan.
type AnomaliesDetectedPayload struct {
	Findings   []domain.Anomaly `json:"findings"`
	HighCount  int              `json:"high_count"`
	ScanTookMs int64            `json:"scan_took_ms"`
}
