package domain

import (
	"bytes"
	"encoding/json"
)

// AnomalyType identifies which detector produced a finding.
type AnomalyType string

const (
	AnomalyHighUserVolume  AnomalyType = "HIGH_USER_VOLUME"
	AnomalyDailySpike      AnomalyType = "DAILY_SPIKE"
	AnomalyDuplicateTicket AnomalyType = "DUPLICATE_TICKET"
	AnomalySlowResolution  AnomalyType = "SLOW_RESOLUTION"
	AnomalySLAViolation    AnomalyType = "SLA_VIOLATION"
)

// Severity ranks findings. Detectors only emit MEDIUM and HIGH.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Detail is one named piece of evidence attached to a finding.
type Detail struct {
	Key   string
	Value any
}

// Details keeps evidence in insertion order and encodes as a JSON object.
type Details []Detail

// Get returns the value stored under key.
func (d Details) Get(key string) (any, bool) {
	for _, item := range d {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes details as an object whose keys keep their order.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Anomaly is a single detector finding. It is built per call and never stored.
type Anomaly struct {
	Type        AnomalyType `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Details     Details     `json:"details"`
}
