package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-analytics/internal/api/dto"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/service"
)

// AnomaliesHandler exposes the detectors.
type AnomaliesHandler struct {
	service *service.AnomalyService
}

// NewAnomaliesHandler constructs handler.
func NewAnomaliesHandler(anomalyService *service.AnomalyService) *AnomaliesHandler {
	return &AnomaliesHandler{service: anomalyService}
}

// All GET /analytics/anomalies.
func (h *AnomaliesHandler) All(c *fiber.Ctx) error {
	return respondAnomalies(c, h.service.DetectAll)
}

// HighVolumeUsers GET /analytics/anomalies/high-volume-users.
func (h *AnomaliesHandler) HighVolumeUsers(c *fiber.Ctx) error {
	return respondAnomalies(c, h.service.DetectHighVolumeUsers)
}

// DailySpike GET /analytics/anomalies/daily-spike.
func (h *AnomaliesHandler) DailySpike(c *fiber.Ctx) error {
	return respondAnomalies(c, h.service.DetectDailySpike)
}

// Duplicates GET /analytics/anomalies/duplicates.
func (h *AnomaliesHandler) Duplicates(c *fiber.Ctx) error {
	return respondAnomalies(c, h.service.DetectDuplicateTickets)
}

// SlowResolution GET /analytics/anomalies/slow-resolution.
func (h *AnomaliesHandler) SlowResolution(c *fiber.Ctx) error {
	return respondAnomalies(c, h.service.DetectSlowResolution)
}

// SLAViolations GET /analytics/anomalies/sla-violations.
func (h *AnomaliesHandler) SLAViolations(c *fiber.Ctx) error {
	return respondAnomalies(c, h.service.DetectSLAViolations)
}

func respondAnomalies(c *fiber.Ctx, detect func(context.Context) ([]domain.Anomaly, error)) error {
	found, err := detect(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAnomaliesResponse(found)})
}
