package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/events"
)

// Detector runs a full anomaly pass.
type Detector interface {
	DetectAll(ctx context.Context) ([]domain.Anomaly, error)
}

// ScanWorker runs anomaly detection on a cron schedule and publishes the results.
type ScanWorker struct {
	detector   Detector
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timeout    time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// NewScanWorker creates a worker. timeout bounds a single scan; zero means no limit.
func NewScanWorker(detector Detector, dispatcher events.Dispatcher, logger *zap.Logger, timeout time.Duration) *ScanWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanWorker{
		detector:   detector,
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    timeout,
	}
}

// Start schedules scans using a standard five-field cron expression.
func (w *ScanWorker) Start(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return fmt.Errorf("scan schedule is empty")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return fmt.Errorf("scan worker already started")
	}

	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	if _, err := c.AddFunc(schedule, w.scheduledRun); err != nil {
		return fmt.Errorf("parse scan schedule %q: %w", schedule, err)
	}
	c.Start()
	w.cron = c
	w.logger.Info("anomaly scan scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (w *ScanWorker) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

func (w *ScanWorker) scheduledRun() {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("scheduled anomaly scan failed", zap.Error(err))
	}
}

// RunOnce performs a single scan and publishes an anomalies_detected event.
func (w *ScanWorker) RunOnce(ctx context.Context) (events.Event, error) {
	start := time.Now()
	findings, err := w.detector.DetectAll(ctx)
	if err != nil {
		return events.Event{}, fmt.Errorf("anomaly scan: %w", err)
	}

	high := 0
	for _, f := range findings {
		if f.Severity == domain.SeverityHigh {
			high++
		}
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAnomaliesDetected,
		Timestamp: time.Now().UTC(),
		Payload: events.AnomaliesDetectedPayload{
			Findings:   findings,
			HighCount:  high,
			ScanTookMs: time.Since(start).Milliseconds(),
		},
	}

	if w.dispatcher != nil {
		if err := w.dispatcher.Publish(ctx, event); err != nil {
			w.logger.Warn("anomaly event handlers failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return event, nil
}
