package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAnomaliesDetected, n.handleAnomaliesDetected)
}

func (n *NotificationService) handleAnomaliesDetected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AnomaliesDetectedPayload)
	if !ok {
		return fmt.Errorf("event %s: unexpected payload %T", event.ID, event.Payload)
	}

	n.logger.Info("AnomaliesDetected",
		zap.String("event_id", event.ID),
		zap.Int("findings", len(payload.Findings)),
		zap.Int("high", payload.HighCount),
		zap.Int64("scan_took_ms", payload.ScanTookMs))

	for _, finding := range payload.Findings {
		if finding.Severity != domain.SeverityHigh {
			continue
		}
		n.sendEmailNotificationStub(ctx, event, finding)
		n.sendWebhookNotificationStub(ctx, event, finding)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event, finding domain.Anomaly) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_id", event.ID),
		zap.String("anomaly_type", string(finding.Type)),
		zap.String("description", finding.Description))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event, finding domain.Anomaly) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("anomaly_type", string(finding.Type)),
		zap.String("description", finding.Description))
}
