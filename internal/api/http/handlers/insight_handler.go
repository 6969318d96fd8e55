package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-analytics/internal/api/dto"
	"github.com/spec-kit/complaint-analytics/internal/service"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// InsightHandler serves AI explanations.
type InsightHandler struct {
	service *service.InsightService
}

// NewInsightHandler constructs handler.
func NewInsightHandler(insightService *service.InsightService) *InsightHandler {
	return &InsightHandler{service: insightService}
}

// Insight POST /analytics/ai/insight.
func (h *InsightHandler) Insight(c *fiber.Ctx) error {
	var req dto.InsightRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Scenario) == "" {
		return apperrors.NewValidationError("scenario required", nil)
	}
	insight, err := h.service.Insight(c.UserContext(), req.Scenario, req.Context)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInsightResponse(insight)})
}

// AnomalySummary GET /analytics/ai/anomaly-summary.
func (h *InsightHandler) AnomalySummary(c *fiber.Ctx) error {
	insight, err := h.service.AnomalySummary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInsightResponse(insight)})
}
