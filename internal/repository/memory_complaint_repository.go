package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

type memoryComplaintRepository struct {
	records []domain.Complaint
}

// NewMemoryComplaintRepository serves queries from a fixed snapshot of complaints.
// Records are copied and kept in id order.
func NewMemoryComplaintRepository(records []domain.Complaint) ComplaintRepository {
	snapshot := make([]domain.Complaint, len(records))
	copy(snapshot, records)
	sort.SliceStable(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	return &memoryComplaintRepository{records: snapshot}
}

// LoadComplaintSnapshot reads a JSON array of complaints from path.
func LoadComplaintSnapshot(path string) ([]domain.Complaint, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var records []domain.Complaint
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return records, nil
}

func (r *memoryComplaintRepository) CountAll(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, func(domain.Complaint) bool { return true })
}

func (r *memoryComplaintRepository) CountByStatus(ctx context.Context, status domain.ComplaintStatus) (int64, error) {
	return r.countWhere(ctx, func(c domain.Complaint) bool { return c.Status == status })
}

func (r *memoryComplaintRepository) CountByCategory(ctx context.Context, category domain.Category) (int64, error) {
	return r.countWhere(ctx, func(c domain.Complaint) bool { return c.Category == category })
}

func (r *memoryComplaintRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	return r.countWhere(ctx, func(c domain.Complaint) bool { return c.RaisedBy == userID })
}

func (r *memoryComplaintRepository) countWhere(ctx context.Context, match func(domain.Complaint) bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range r.records {
		if match(c) {
			n++
		}
	}
	return n, nil
}

func (r *memoryComplaintRepository) GroupCountByStatus(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupBy(ctx, func(c domain.Complaint) string { return string(c.Status) })
}

func (r *memoryComplaintRepository) GroupCountByCategory(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupBy(ctx, func(c domain.Complaint) string { return string(c.Category) })
}

func (r *memoryComplaintRepository) GroupCountByBlock(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupBy(ctx, func(c domain.Complaint) string {
		if c.Block == "" {
			return domain.UnknownBlock
		}
		return c.Block
	})
}

// groupBy counts records per label, ordered by label.
func (r *memoryComplaintRepository) groupBy(ctx context.Context, label func(domain.Complaint) string) ([]domain.GroupCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, c := range r.records {
		counts[label(c)]++
	}
	result := make([]domain.GroupCount, 0, len(counts))
	for l, n := range counts {
		result = append(result, domain.GroupCount{Label: l, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Label < result[j].Label })
	return result, nil
}

func (r *memoryComplaintRepository) AverageResolutionHours(ctx context.Context) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		total float64
		n     int
	)
	for _, c := range r.records {
		if c.Status != domain.ComplaintStatusResolved || c.ResolvedAt == nil {
			continue
		}
		total += c.ResolvedAt.Sub(c.CreatedAt).Hours()
		n++
	}
	if n == 0 {
		return nil, nil
	}
	avg := total / float64(n)
	return &avg, nil
}

func (r *memoryComplaintRepository) TopUsersRanked(ctx context.Context) ([]domain.UserCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[int64]int64)
	for _, c := range r.records {
		counts[c.RaisedBy]++
	}
	result := make([]domain.UserCount, 0, len(counts))
	for user, n := range counts {
		result = append(result, domain.UserCount{UserID: user, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

func (r *memoryComplaintRepository) Trend(ctx context.Context, granularity domain.Granularity) ([]domain.TrendPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !granularity.Valid() {
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	counts := make(map[trendBucket]int64)
	for _, c := range r.records {
		counts[bucketFor(c.CreatedAt.UTC(), granularity)]++
	}

	keys := make([]trendBucket, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].order != keys[j].order {
			return keys[i].order < keys[j].order
		}
		return keys[i].label < keys[j].label
	})

	result := make([]domain.TrendPoint, 0, len(keys))
	for _, k := range keys {
		result = append(result, domain.TrendPoint{Bucket: k.label, Count: counts[k]})
	}
	return result, nil
}

// trendBucket orders hourly buckets numerically and the rest lexicographically.
type trendBucket struct {
	label string
	order int
}

func bucketFor(t time.Time, granularity domain.Granularity) trendBucket {
	switch granularity {
	case domain.GranularityWeekly:
		year, week := t.ISOWeek()
		return trendBucket{label: fmt.Sprintf("%04d-W%02d", year, week)}
	case domain.GranularityMonthly:
		return trendBucket{label: t.Format("2006-01")}
	case domain.GranularityHourly:
		return trendBucket{label: strconv.Itoa(t.Hour()), order: t.Hour()}
	default:
		return trendBucket{label: t.Format("2006-01-02")}
	}
}

func (r *memoryComplaintRepository) AllRecords(ctx context.Context) ([]domain.Complaint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]domain.Complaint, len(r.records))
	copy(result, r.records)
	return result, nil
}

func (r *memoryComplaintRepository) OpenRecordsOlderThan(ctx context.Context, ts time.Time) ([]domain.Complaint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result []domain.Complaint
	for _, c := range r.records {
		if c.IsOpen() && c.CreatedAt.Before(ts) {
			result = append(result, c)
		}
	}
	return result, nil
}
