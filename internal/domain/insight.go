package domain

import "strings"

// InsightScenario selects the prompt used for an AI insight.
type InsightScenario string

const (
	ScenarioUserBehavior   InsightScenario = "USER_BEHAVIOR"
	ScenarioTicketSpike    InsightScenario = "TICKET_SPIKE"
	ScenarioResolutionTime InsightScenario = "RESOLUTION_TIME"
	ScenarioGeneral        InsightScenario = "GENERAL"
	ScenarioAnomalySummary InsightScenario = "ANOMALY_SUMMARY"
)

// NormalizeScenario upper-cases and trims a scenario name.
func NormalizeScenario(s string) InsightScenario {
	return InsightScenario(strings.ToUpper(strings.TrimSpace(s)))
}

// Insight is a model-written explanation for one scenario.
type Insight struct {
	Scenario    string `json:"scenario"`
	Explanation string `json:"explanation"`
}
