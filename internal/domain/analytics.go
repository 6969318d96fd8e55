package domain

import "strings"

// Granularity selects the bucket size of a trend series.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
	GranularityHourly  Granularity = "hourly"
)

// ParseGranularity normalizes s and reports whether it names a known granularity.
func ParseGranularity(s string) (Granularity, bool) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	return g, g.Valid()
}

// Valid reports whether g is supported.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityHourly:
		return true
	}
	return false
}

// GroupCount is one row of a grouped count query.
type GroupCount struct {
	Label string
	Count int64
}

// UserCount is one row of the per-user ranking.
type UserCount struct {
	UserID int64
	Count  int64
}

// TrendPoint pairs a bucket label with the number of complaints created in it.
type TrendPoint struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// Overview is a point-in-time summary of the complaint store.
type Overview struct {
	TotalComplaints      int64
	StatusDistribution   map[string]int64
	CategoryDistribution map[string]int64
	BlockDistribution    map[string]int64
	// AverageResolutionHours is nil when no complaint has been resolved.
	AverageResolutionHours *float64
}

// TopUser is a complainant ranked by how many complaints they raised.
type TopUser struct {
	UserID         int64 `json:"user_id"`
	ComplaintCount int64 `json:"complaint_count"`
}
