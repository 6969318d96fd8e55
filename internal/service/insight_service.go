package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/llm"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	"github.com/spec-kit/complaint-analytics/internal/stats"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// NoAnomaliesMessage is returned by AnomalySummary when nothing was detected.
const NoAnomaliesMessage = "No anomalies detected in the current dataset."

// InsightCache stores successful summarizer responses.
type InsightCache interface {
	Get(ctx context.Context, prompt string) (string, bool, error)
	Set(ctx context.Context, prompt, response string) error
}

// InsightService builds scenario prompts and asks the summarizer to explain them.
type InsightService struct {
	complaints repository.ComplaintRepository
	anomalies  *AnomalyService
	summarizer llm.Summarizer
	cache      InsightCache
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// InsightDependencies bundles collaborators for the insight service.
type InsightDependencies struct {
	ComplaintRepo  repository.ComplaintRepository
	AnomalyService *AnomalyService
	Summarizer     llm.Summarizer
	// Cache is optional.
	Cache   InsightCache
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewInsightService constructs the service.
func NewInsightService(deps InsightDependencies) *InsightService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	summarizer := deps.Summarizer
	if summarizer == nil {
		summarizer = llm.DisabledSummarizer{}
	}
	return &InsightService{
		complaints: deps.ComplaintRepo,
		anomalies:  deps.AnomalyService,
		summarizer: summarizer,
		cache:      deps.Cache,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Insight explains the requested scenario. Summarizer failures are reported in
// the explanation text rather than as an error.
func (s *InsightService) Insight(ctx context.Context, scenario, contextText string) (*domain.Insight, error) {
	if strings.TrimSpace(scenario) == "" {
		return nil, apperrors.NewValidationError("scenario is required", nil)
	}
	prompt, err := s.buildPrompt(ctx, domain.NormalizeScenario(scenario), contextText)
	if err != nil {
		return nil, err
	}
	return &domain.Insight{Scenario: scenario, Explanation: s.explain(ctx, prompt)}, nil
}

// AnomalySummary runs every detector and asks for a management summary of the findings.
func (s *InsightService) AnomalySummary(ctx context.Context) (*domain.Insight, error) {
	found, err := s.anomalies.DetectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies: %w", err)
	}
	insight := &domain.Insight{Scenario: string(domain.ScenarioAnomalySummary)}
	if len(found) == 0 {
		insight.Explanation = NoAnomaliesMessage
		return insight, nil
	}

	encoded, err := json.MarshalIndent(found, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode anomalies: %w", err)
	}
	insight.Explanation = s.explain(ctx, fmt.Sprintf(anomalySummaryPrompt, encoded))
	return insight, nil
}

func (s *InsightService) explain(ctx context.Context, prompt string) string {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, prompt)
		if err != nil {
			s.logger.Warn("insight cache read failed", zap.Error(err))
		} else if ok {
			s.metrics.RecordSummary(observability.OutcomeCacheHit)
			return cached
		}
	}

	text, err := s.summarizer.Summarize(ctx, prompt)
	if err != nil {
		s.metrics.RecordSummary(observability.OutcomeError)
		s.logger.Warn("summarizer call failed", zap.Error(err))
		return "Failed to reach AI service: " + err.Error()
	}
	s.metrics.RecordSummary(observability.OutcomeSuccess)

	if s.cache != nil {
		if err := s.cache.Set(ctx, prompt, text); err != nil {
			s.logger.Warn("insight cache write failed", zap.Error(err))
		}
	}
	return text
}

func (s *InsightService) buildPrompt(ctx context.Context, scenario domain.InsightScenario, contextText string) (string, error) {
	switch scenario {
	case domain.ScenarioUserBehavior:
		userID, err := strconv.ParseInt(strings.TrimSpace(contextText), 10, 64)
		if err != nil {
			return "", apperrors.NewValidationError("context must be a numeric user id", map[string]any{
				"context": contextText,
			})
		}
		count, err := s.complaints.CountByUser(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("count user complaints: %w", err)
		}
		ranked, err := s.complaints.TopUsersRanked(ctx)
		if err != nil {
			return "", fmt.Errorf("rank users: %w", err)
		}
		counts := make([]int64, len(ranked))
		for i, row := range ranked {
			counts[i] = row.Count
		}
		return fmt.Sprintf(userBehaviorPrompt, userID, count, stats.Mean(counts)), nil

	case domain.ScenarioTicketSpike:
		points, err := s.complaints.Trend(ctx, domain.GranularityDaily)
		if err != nil {
			return "", fmt.Errorf("daily trend: %w", err)
		}
		rows := make([]domain.GroupCount, len(points))
		for i, p := range points {
			rows[i] = domain.GroupCount{Label: p.Bucket, Count: p.Count}
		}
		return fmt.Sprintf(ticketSpikePrompt, formatRows(rows)), nil

	case domain.ScenarioResolutionTime:
		avg, err := s.complaints.AverageResolutionHours(ctx)
		if err != nil {
			return "", fmt.Errorf("average resolution: %w", err)
		}
		hours := 0.0
		if avg != nil {
			hours = *avg
		}
		return fmt.Sprintf(resolutionTimePrompt, hours), nil

	case domain.ScenarioGeneral:
		total, err := s.complaints.CountAll(ctx)
		if err != nil {
			return "", fmt.Errorf("count complaints: %w", err)
		}
		status, err := s.complaints.GroupCountByStatus(ctx)
		if err != nil {
			return "", fmt.Errorf("group by status: %w", err)
		}
		category, err := s.complaints.GroupCountByCategory(ctx)
		if err != nil {
			return "", fmt.Errorf("group by category: %w", err)
		}
		extra := strings.TrimSpace(contextText)
		if extra == "" {
			extra = "none"
		}
		return fmt.Sprintf(generalPrompt, total, formatRows(status), formatRows(category), extra), nil

	default:
		return defaultPrompt, nil
	}
}

func formatRows(rows []domain.GroupCount) string {
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s: %d\n", row.Label, row.Count)
	}
	return b.String()
}

const userBehaviorPrompt = `You are an analytics assistant for a complaint management system.
User %d has raised %d tickets, while the average per user is %.1f.

In 2-3 paragraphs explain why this user might be raising so many tickets. Consider repeated
unresolved issues, a fault in a specific area, misuse of the ticketing system, or a role that
naturally produces more requests. Suggest what management should investigate.`

const ticketSpikePrompt = `You are an analytics assistant for a complaint management system.
Daily ticket volume:

%s
A recent spike has been detected. In 2-3 paragraphs explain likely reasons for the sharp
increase, such as maintenance work, seasonal demand, a newly reported fault or an external
event, and recommend actions.`

const resolutionTimePrompt = `You are an analytics assistant for a complaint management system.
The average ticket resolution time is currently %.1f hours.

In 2-3 paragraphs explain why resolution time might be increasing. Consider staff capacity,
ticket complexity, missing escalation policies and tooling. Recommend how management can
reduce it.`

const generalPrompt = `You are an analytics assistant for a complaint management system.

Total tickets      : %d
Status breakdown   :
%s
Category breakdown :
%s
Additional context : %s

Provide a management-level analysis in 3 paragraphs covering system health, workload
distribution and any concerns you notice.`

const defaultPrompt = "Provide a brief general overview of a complaint management analytics system."

const anomalySummaryPrompt = `You are an analytics assistant for a complaint management system.
The following anomalies were detected automatically:

%s

Write a concise management summary covering the most critical issues, likely root causes per
anomaly type and recommended actions for the operations team. Stay under 300 words.`
