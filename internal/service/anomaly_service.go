package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	"github.com/spec-kit/complaint-analytics/internal/stats"
)

// Detector names used in logs and metrics.
const (
	DetectorHighVolumeUsers = "high_volume_users"
	DetectorDailySpike      = "daily_spike"
	DetectorDuplicates      = "duplicates"
	DetectorSlowResolution  = "slow_resolution"
	DetectorSLAViolations   = "sla_violations"
)

// minSpikePopulation is the fewest trend points that give a usable variance.
const minSpikePopulation = 3

// AnomalyService runs the anomaly detectors against the complaint store.
type AnomalyService struct {
	complaints repository.ComplaintRepository
	cfg        config.AnomalyConfig
	now        func() time.Time
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AnomalyDependencies bundles collaborators for the anomaly service.
type AnomalyDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Config        config.AnomalyConfig
	// Clock defaults to time.Now.
	Clock   func() time.Time
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewAnomalyService constructs the service.
func NewAnomalyService(deps AnomalyDependencies) *AnomalyService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnomalyService{
		complaints: deps.ComplaintRepo,
		cfg:        deps.Config,
		now:        clock,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

type detector struct {
	name string
	run  func(ctx context.Context, now time.Time) ([]domain.Anomaly, error)
}

// detectors lists every detector in the order DetectAll reports them.
func (s *AnomalyService) detectors() []detector {
	return []detector{
		{DetectorHighVolumeUsers, s.detectHighVolumeUsers},
		{DetectorDailySpike, s.detectDailySpike},
		{DetectorDuplicates, s.detectDuplicateTickets},
		{DetectorSlowResolution, s.detectSlowResolution},
		{DetectorSLAViolations, s.detectSLAViolations},
	}
}

// DetectAll runs every detector concurrently and concatenates their findings in
// detector order. The first store failure aborts the pass.
func (s *AnomalyService) DetectAll(ctx context.Context) ([]domain.Anomaly, error) {
	now := s.now()
	detectors := s.detectors()
	results := make([][]domain.Anomaly, len(detectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		i, d := i, d
		g.Go(func() error {
			found, err := s.observe(gctx, d, now)
			if err != nil {
				return fmt.Errorf("%s: %w", d.name, err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]domain.Anomaly, 0)
	for _, found := range results {
		all = append(all, found...)
	}
	s.logger.Debug("anomaly scan complete", zap.Int("findings", len(all)))
	return all, nil
}

// DetectHighVolumeUsers flags users who raised unusually many complaints.
func (s *AnomalyService) DetectHighVolumeUsers(ctx context.Context) ([]domain.Anomaly, error) {
	return s.observe(ctx, detector{DetectorHighVolumeUsers, s.detectHighVolumeUsers}, s.now())
}

// DetectDailySpike flags days whose volume is far above the daily mean.
func (s *AnomalyService) DetectDailySpike(ctx context.Context) ([]domain.Anomaly, error) {
	return s.observe(ctx, detector{DetectorDailySpike, s.detectDailySpike}, s.now())
}

// DetectDuplicateTickets flags pairs of similar complaints in the same category.
func (s *AnomalyService) DetectDuplicateTickets(ctx context.Context) ([]domain.Anomaly, error) {
	return s.observe(ctx, detector{DetectorDuplicates, s.detectDuplicateTickets}, s.now())
}

// DetectSlowResolution flags open complaints older than a multiple of the average resolution time.
func (s *AnomalyService) DetectSlowResolution(ctx context.Context) ([]domain.Anomaly, error) {
	return s.observe(ctx, detector{DetectorSlowResolution, s.detectSlowResolution}, s.now())
}

// DetectSLAViolations flags open complaints older than the SLA window.
func (s *AnomalyService) DetectSLAViolations(ctx context.Context) ([]domain.Anomaly, error) {
	return s.observe(ctx, detector{DetectorSLAViolations, s.detectSLAViolations}, s.now())
}

func (s *AnomalyService) observe(ctx context.Context, d detector, now time.Time) ([]domain.Anomaly, error) {
	start := time.Now()
	found, err := d.run(ctx, now)
	s.metrics.RecordDetection(d.name, time.Since(start), found, err)
	if err != nil {
		s.logger.Warn("detector failed", zap.String("detector", d.name), zap.Error(err))
		return nil, err
	}
	return found, nil
}

func (s *AnomalyService) detectHighVolumeUsers(ctx context.Context, _ time.Time) ([]domain.Anomaly, error) {
	rows, err := s.complaints.TopUsersRanked(ctx)
	if err != nil {
		return nil, err
	}
	anomalies := make([]domain.Anomaly, 0)
	if len(rows) == 0 {
		return anomalies, nil
	}

	counts := make([]int64, len(rows))
	for i, row := range rows {
		counts[i] = row.Count
	}
	mean := stats.Mean(counts)
	std := stats.StdDev(counts, mean)

	threshold := s.cfg.HighUserTicketThreshold
	for _, row := range rows {
		z := 0.0
		if std > 0 {
			z = stats.ZScore(row.Count, mean, std)
		}
		overThreshold := row.Count >= threshold
		highZScore := std > 0 && z >= s.cfg.SpikeZScore
		if !overThreshold && !highZScore {
			continue
		}

		severity := domain.SeverityMedium
		if row.Count >= 2*threshold {
			severity = domain.SeverityHigh
		}
		anomalies = append(anomalies, domain.Anomaly{
			Type:     domain.AnomalyHighUserVolume,
			Severity: severity,
			Description: fmt.Sprintf("User %d has raised %d tickets (mean=%.1f, z=%.2f)",
				row.UserID, row.Count, mean, z),
			Details: domain.Details{
				{Key: "userId", Value: row.UserID},
				{Key: "count", Value: row.Count},
				{Key: "mean", Value: fmt.Sprintf("%.1f", mean)},
				{Key: "zScore", Value: fmt.Sprintf("%.2f", z)},
			},
		})
	}
	return anomalies, nil
}

func (s *AnomalyService) detectDailySpike(ctx context.Context, _ time.Time) ([]domain.Anomaly, error) {
	points, err := s.complaints.Trend(ctx, domain.GranularityDaily)
	if err != nil {
		return nil, err
	}
	anomalies := make([]domain.Anomaly, 0)
	if len(points) < minSpikePopulation {
		return anomalies, nil
	}

	counts := make([]int64, len(points))
	for i, p := range points {
		counts[i] = p.Count
	}
	mean := stats.Mean(counts)
	std := stats.StdDev(counts, mean)
	if std <= 0 {
		return anomalies, nil
	}

	for _, p := range points {
		z := stats.ZScore(p.Count, mean, std)
		if z < s.cfg.SpikeZScore {
			continue
		}
		anomalies = append(anomalies, domain.Anomaly{
			Type:        domain.AnomalyDailySpike,
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Ticket spike detected on %s: %d tickets (z=%.2f)", p.Bucket, p.Count, z),
			Details: domain.Details{
				{Key: "date", Value: p.Bucket},
				{Key: "count", Value: p.Count},
				{Key: "mean", Value: fmt.Sprintf("%.1f", mean)},
				{Key: "stdDev", Value: fmt.Sprintf("%.1f", std)},
			},
		})
	}
	return anomalies, nil
}

func (s *AnomalyService) detectDuplicateTickets(ctx context.Context, _ time.Time) ([]domain.Anomaly, error) {
	records, err := s.complaints.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	partitions := partitionByCategory(records)
	results := make([][]domain.Anomaly, len(partitions))

	var wg sync.WaitGroup
	for i, p := range partitions {
		wg.Add(1)
		go func(idx int, p categoryPartition) {
			defer wg.Done()
			results[idx] = s.scanPartition(p)
		}(i, p)
	}
	wg.Wait()

	anomalies := make([]domain.Anomaly, 0)
	for _, found := range results {
		anomalies = append(anomalies, found...)
	}
	return anomalies, nil
}

type categoryPartition struct {
	category domain.Category
	records  []domain.Complaint
}

// partitionByCategory groups records by category, keeping record order inside a
// partition. Known categories come first in canonical order, then any others sorted.
func partitionByCategory(records []domain.Complaint) []categoryPartition {
	grouped := make(map[domain.Category][]domain.Complaint)
	for _, r := range records {
		grouped[r.Category] = append(grouped[r.Category], r)
	}

	order := make([]domain.Category, 0, len(grouped))
	for _, c := range domain.Categories() {
		if _, ok := grouped[c]; ok {
			order = append(order, c)
		}
	}
	var extra []domain.Category
	for c := range grouped {
		if !c.Valid() {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	order = append(order, extra...)

	partitions := make([]categoryPartition, 0, len(order))
	for _, c := range order {
		partitions = append(partitions, categoryPartition{category: c, records: grouped[c]})
	}
	return partitions
}

func (s *AnomalyService) scanPartition(p categoryPartition) []domain.Anomaly {
	tokens := make([]map[string]struct{}, len(p.records))
	for i, r := range p.records {
		tokens[i] = stats.Tokenize(r.Description)
	}

	flagged := make(map[int64]struct{})
	var anomalies []domain.Anomaly
	for i := 0; i < len(p.records); i++ {
		for j := i + 1; j < len(p.records); j++ {
			a, b := p.records[i], p.records[j]
			_, aFlagged := flagged[a.ID]
			_, bFlagged := flagged[b.ID]
			if skipPair(s.cfg.DuplicatePolicy, aFlagged, bFlagged) {
				continue
			}

			sim := stats.JaccardSets(tokens[i], tokens[j])
			if sim < s.cfg.SimilarityThreshold {
				continue
			}
			flagged[a.ID] = struct{}{}
			flagged[b.ID] = struct{}{}
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalyDuplicateTicket,
				Severity: domain.SeverityMedium,
				Description: fmt.Sprintf("Tickets #%d and #%d in category %s appear similar (similarity=%.0f%%)",
					a.ID, b.ID, p.category, sim*100),
				Details: domain.Details{
					{Key: "ticketIds", Value: []int64{a.ID, b.ID}},
					{Key: "category", Value: string(p.category)},
					{Key: "similarity", Value: fmt.Sprintf("%.2f", sim)},
				},
			})
		}
	}
	return anomalies
}

// skipPair applies the duplicate policy to a candidate pair. Under the default
// both-flagged policy a ticket already paired once can still pair with a new partner.
func skipPair(policy config.DuplicatePolicy, aFlagged, bFlagged bool) bool {
	if policy == config.DuplicateSkipEitherFlagged {
		return aFlagged || bFlagged
	}
	return aFlagged && bFlagged
}

func (s *AnomalyService) detectSlowResolution(ctx context.Context, now time.Time) ([]domain.Anomaly, error) {
	avg, err := s.complaints.AverageResolutionHours(ctx)
	if err != nil {
		return nil, err
	}
	anomalies := make([]domain.Anomaly, 0)
	if avg == nil || *avg == 0 {
		return anomalies, nil
	}

	threshold := *avg * s.cfg.SlowResolutionMultiplier
	cutoff := now.Add(-time.Duration(threshold * float64(time.Hour)))
	open, err := s.complaints.OpenRecordsOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	for _, c := range open {
		hoursOpen := c.HoursOpen(now)
		severity := domain.SeverityMedium
		if float64(hoursOpen) > 2*threshold {
			severity = domain.SeverityHigh
		}
		anomalies = append(anomalies, domain.Anomaly{
			Type:     domain.AnomalySlowResolution,
			Severity: severity,
			Description: fmt.Sprintf("Ticket #%d has been open for %dh (avg=%.1fh, threshold=%.1fh)",
				c.ID, hoursOpen, *avg, threshold),
			Details: domain.Details{
				{Key: "ticketId", Value: c.ID},
				{Key: "hoursOpen", Value: hoursOpen},
				{Key: "status", Value: string(c.Status)},
				{Key: "category", Value: string(c.Category)},
			},
		})
	}
	return anomalies, nil
}

func (s *AnomalyService) detectSLAViolations(ctx context.Context, now time.Time) ([]domain.Anomaly, error) {
	cutoff := now.Add(-time.Duration(s.cfg.SLAHours) * time.Hour)
	open, err := s.complaints.OpenRecordsOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	anomalies := make([]domain.Anomaly, 0, len(open))
	for _, c := range open {
		hoursOpen := c.HoursOpen(now)
		anomalies = append(anomalies, domain.Anomaly{
			Type:        domain.AnomalySLAViolation,
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Ticket #%d breached %dh SLA (%dh open)", c.ID, s.cfg.SLAHours, hoursOpen),
			Details: domain.Details{
				{Key: "ticketId", Value: c.ID},
				{Key: "hoursOpen", Value: hoursOpen},
				{Key: "raisedBy", Value: c.RaisedBy},
				{Key: "category", Value: string(c.Category)},
			},
		})
	}
	return anomalies, nil
}
