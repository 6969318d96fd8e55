package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DuplicatePolicy decides when a candidate pair is skipped by the duplicate scan.
type DuplicatePolicy string

const (
	// DuplicateSkipBothFlagged skips a pair only when both tickets were already
	// flagged in the same category, so a flagged ticket can still pair with new partners.
	DuplicateSkipBothFlagged DuplicatePolicy = "both-flagged"
	// DuplicateSkipEitherFlagged skips a pair as soon as one ticket was flagged.
	DuplicateSkipEitherFlagged DuplicatePolicy = "either-flagged"
)

// AnomalyConfig carries detector thresholds.
type AnomalyConfig struct {
	HighUserTicketThreshold  int64           `yaml:"high_user_ticket_threshold"`
	SpikeZScore              float64         `yaml:"spike_z_score"`
	SimilarityThreshold      float64         `yaml:"similarity_threshold"`
	SlowResolutionMultiplier float64         `yaml:"slow_resolution_multiplier"`
	SLAHours                 int64           `yaml:"sla_hours"`
	DuplicatePolicy          DuplicatePolicy `yaml:"duplicate_policy"`
}

// DefaultAnomalyConfig returns the stock thresholds.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		HighUserTicketThreshold:  10,
		SpikeZScore:              2.0,
		SimilarityThreshold:      0.6,
		SlowResolutionMultiplier: 2.0,
		SLAHours:                 48,
		DuplicatePolicy:          DuplicateSkipBothFlagged,
	}
}

// Validate rejects thresholds the detectors cannot work with.
func (c AnomalyConfig) Validate() error {
	if c.HighUserTicketThreshold <= 0 {
		return fmt.Errorf("high_user_ticket_threshold must be positive, got %d", c.HighUserTicketThreshold)
	}
	if c.SpikeZScore <= 0 {
		return fmt.Errorf("spike_z_score must be positive, got %v", c.SpikeZScore)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0,1], got %v", c.SimilarityThreshold)
	}
	if c.SlowResolutionMultiplier <= 0 {
		return fmt.Errorf("slow_resolution_multiplier must be positive, got %v", c.SlowResolutionMultiplier)
	}
	if c.SLAHours <= 0 {
		return fmt.Errorf("sla_hours must be positive, got %d", c.SLAHours)
	}
	switch c.DuplicatePolicy {
	case DuplicateSkipBothFlagged, DuplicateSkipEitherFlagged:
	default:
		return fmt.Errorf("unknown duplicate_policy %q", c.DuplicatePolicy)
	}
	return nil
}

// LoadAnomalyFile overlays thresholds from a YAML file onto base.
// Keys missing from the file keep their base value.
func LoadAnomalyFile(path string, base AnomalyConfig) (AnomalyConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read anomaly config %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return base, fmt.Errorf("parse anomaly config %s: %w", path, err)
	}
	return cfg, nil
}

func loadAnomalyConfig() (AnomalyConfig, error) {
	def := DefaultAnomalyConfig()
	cfg := AnomalyConfig{
		HighUserTicketThreshold:  int64(getEnvAsInt("ANOMALY_HIGH_USER_THRESHOLD", int(def.HighUserTicketThreshold))),
		SpikeZScore:              getEnvAsFloat("ANOMALY_SPIKE_Z_SCORE", def.SpikeZScore),
		SimilarityThreshold:      getEnvAsFloat("ANOMALY_SIMILARITY_THRESHOLD", def.SimilarityThreshold),
		SlowResolutionMultiplier: getEnvAsFloat("ANOMALY_SLOW_RESOLUTION_MULTIPLIER", def.SlowResolutionMultiplier),
		SLAHours:                 int64(getEnvAsInt("ANOMALY_SLA_HOURS", int(def.SLAHours))),
		DuplicatePolicy:          DuplicatePolicy(getEnv("ANOMALY_DUPLICATE_POLICY", string(def.DuplicatePolicy))),
	}

	if path := os.Getenv("ANOMALY_CONFIG_FILE"); path != "" {
		var err error
		cfg, err = LoadAnomalyFile(path, cfg)
		if err != nil {
			return cfg, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid anomaly config: %w", err)
	}
	return cfg, nil
}
