package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-analytics/internal/api/dto"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/service"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// AnalyticsHandler serves aggregate endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// Overview GET /analytics/overview.
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOverviewResponse(overview)})
}

// Trend GET /analytics/trends/:granularity.
func (h *AnalyticsHandler) Trend(c *fiber.Ctx) error {
	granularity, ok := domain.ParseGranularity(c.Params("granularity"))
	if !ok {
		return apperrors.NewValidationError("unsupported granularity", map[string]any{
			"granularity": c.Params("granularity"),
			"allowed":     []string{"daily", "weekly", "monthly", "hourly"},
		})
	}
	return h.trend(c, granularity)
}

// PeakHours GET /analytics/peak-hours.
func (h *AnalyticsHandler) PeakHours(c *fiber.Ctx) error {
	return h.trend(c, domain.GranularityHourly)
}

func (h *AnalyticsHandler) trend(c *fiber.Ctx, granularity domain.Granularity) error {
	points, err := h.service.Trend(c.UserContext(), granularity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTrendResponse(points)})
}

// TopUsers GET /analytics/top-users.
func (h *AnalyticsHandler) TopUsers(c *fiber.Ctx) error {
	users, err := h.service.TopUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTopUsersResponse(users)})
}
