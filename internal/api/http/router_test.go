package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/api/http/handlers"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/llm"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	"github.com/spec-kit/complaint-analytics/internal/service"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeDependency struct {
	enabled bool
	err     error
}

func (f fakeDependency) Enabled() bool              { return f.enabled }
func (f fakeDependency) Ping(context.Context) error { return f.err }

func fixture() []domain.Complaint {
	resolved := now.Add(-90 * time.Hour)
	return []domain.Complaint{
		{ID: 1, Category: domain.CategoryPlumbing, Status: domain.ComplaintStatusOpen, RaisedBy: 7, Block: "A1",
			CreatedAt: now.Add(-60 * time.Hour), Description: "tap leaking in washroom"},
		{ID: 2, Category: domain.CategoryPlumbing, Status: domain.ComplaintStatusResolved, RaisedBy: 8, Block: "A1",
			CreatedAt: now.Add(-100 * time.Hour), ResolvedAt: &resolved, Description: "tap leaking in washroom"},
	}
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, requireAuth bool, deps map[string]handlers.Dependency) testServer {
	t.Helper()
	repo := repository.NewMemoryComplaintRepository(fixture())
	metrics := observability.NewMetrics()
	anomalies := service.NewAnomalyService(service.AnomalyDependencies{
		ComplaintRepo: repo,
		Config:        config.DefaultAnomalyConfig(),
		Clock:         func() time.Time { return now },
		Metrics:       metrics,
	})
	insights := service.NewInsightService(service.InsightDependencies{
		ComplaintRepo:  repo,
		AnomalyService: anomalies,
		Summarizer:     llm.DisabledSummarizer{},
		Metrics:        metrics,
	})

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	routes := RouteConfig{
		Health:    handlers.NewHealthHandler("complaint-analytics", "test", deps),
		Analytics: handlers.NewAnalyticsHandler(service.NewAnalyticsService(repo)),
		Anomalies: handlers.NewAnomaliesHandler(anomalies),
		Insight:   handlers.NewInsightHandler(insights),
		Metrics:   metrics,
	}
	if requireAuth {
		routes.AuthMiddleware = auth.NewAuthMiddleware(tokens)
	}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, routes)
	return testServer{app: app, tokens: tokens}
}

func doRequest(t *testing.T, app *fiber.App, req *nethttp.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, &decoded))
	}
	return resp.StatusCode, decoded
}

func get(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	return doRequest(t, app, httptest.NewRequest(nethttp.MethodGet, path, nil))
}

func TestOverviewEndpoint(t *testing.T) {
	srv := newTestServer(t, false, nil)

	status, body := get(t, srv.app, "/analytics/overview")
	require.Equal(t, nethttp.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 2, data["total_complaints"])
	assert.EqualValues(t, 10, data["average_resolution_time_in_hours"])
	assert.Equal(t, map[string]any{"A1": float64(2)}, data["block_distribution"])
}

func TestTrendEndpoints(t *testing.T) {
	srv := newTestServer(t, false, nil)

	status, body := get(t, srv.app, "/analytics/trends/monthly")
	require.Equal(t, nethttp.StatusOK, status)
	points := body["data"].([]any)
	require.Len(t, points, 1)
	assert.Equal(t, "2025-02", points[0].(map[string]any)["bucket"])

	status, body = get(t, srv.app, "/analytics/trends/yearly")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])

	status, body = get(t, srv.app, "/analytics/peak-hours")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)
}

func TestTopUsersEndpoint(t *testing.T) {
	srv := newTestServer(t, false, nil)

	status, body := get(t, srv.app, "/analytics/top-users")
	require.Equal(t, nethttp.StatusOK, status)
	users := body["data"].([]any)
	require.Len(t, users, 2)
	assert.EqualValues(t, 7, users[0].(map[string]any)["user_id"])
}

func TestAnomalyEndpoints(t *testing.T) {
	srv := newTestServer(t, false, nil)

	status, body := get(t, srv.app, "/analytics/anomalies")
	require.Equal(t, nethttp.StatusOK, status)
	all := body["data"].([]any)

	types := make([]string, 0, len(all))
	for _, item := range all {
		types = append(types, item.(map[string]any)["type"].(string))
	}
	assert.Equal(t, []string{"DUPLICATE_TICKET", "SLOW_RESOLUTION", "SLA_VIOLATION"}, types)

	status, body = get(t, srv.app, "/analytics/anomalies/sla-violations")
	require.Equal(t, nethttp.StatusOK, status)
	sla := body["data"].([]any)
	require.Len(t, sla, 1)
	details := sla[0].(map[string]any)["details"].(map[string]any)
	assert.EqualValues(t, 1, details["ticketId"])
	assert.EqualValues(t, 60, details["hoursOpen"])

	for _, path := range []string{"high-volume-users", "daily-spike"} {
		status, body = get(t, srv.app, "/analytics/anomalies/"+path)
		require.Equal(t, nethttp.StatusOK, status, path)
		assert.Empty(t, body["data"], path)
		assert.NotNil(t, body["data"], path)
	}
}

func TestInsightEndpoints(t *testing.T) {
	srv := newTestServer(t, false, nil)

	req := httptest.NewRequest(nethttp.MethodPost, "/analytics/ai/insight", strings.NewReader(`{"scenario":"GENERAL"}`))
	req.Header.Set("Content-Type", "application/json")
	status, body := doRequest(t, srv.app, req)
	require.Equal(t, nethttp.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "GENERAL", data["scenario"])
	assert.Equal(t, "Failed to reach AI service: "+llm.ErrNotConfigured.Error(), data["explanation"])

	req = httptest.NewRequest(nethttp.MethodPost, "/analytics/ai/insight", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	status, _ = doRequest(t, srv.app, req)
	assert.Equal(t, nethttp.StatusBadRequest, status)

	status, body = get(t, srv.app, "/analytics/ai/anomaly-summary")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ANOMALY_SUMMARY", body["data"].(map[string]any)["scenario"])
}

func TestAnalyticsRequiresToken(t *testing.T) {
	srv := newTestServer(t, true, nil)

	status, body := get(t, srv.app, "/analytics/overview")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	token, _, err := srv.tokens.GenerateToken("analyst-1", domain.RoleAnalyst)
	require.NoError(t, err)
	req := httptest.NewRequest(nethttp.MethodGet, "/analytics/overview", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, _ = doRequest(t, srv.app, req)
	assert.Equal(t, nethttp.StatusOK, status)

	status, _ = get(t, srv.app, "/health/live")
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestReadiness(t *testing.T) {
	srv := newTestServer(t, false, map[string]handlers.Dependency{
		"postgres": fakeDependency{enabled: false},
		"redis":    fakeDependency{enabled: true},
	})
	status, body := get(t, srv.app, "/health/ready")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "ok"}, body["dependencies"])

	srv = newTestServer(t, false, map[string]handlers.Dependency{
		"redis": fakeDependency{enabled: true, err: errors.New("connection refused")},
	})
	status, body = get(t, srv.app, "/health/ready")
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body["error"].(map[string]any)["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, false, nil)
	_, _ = get(t, srv.app, "/analytics/anomalies")

	resp, err := srv.app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "complaint_analytics_anomaly_findings_total")
}

func TestUnknownRouteRendersError(t *testing.T) {
	srv := newTestServer(t, false, nil)
	status, body := get(t, srv.app, "/nope")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
