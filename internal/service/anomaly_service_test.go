package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/repository"
)

func newAnomalyService(records []domain.Complaint) *AnomalyService {
	return newAnomalyServiceWith(repository.NewMemoryComplaintRepository(records), config.DefaultAnomalyConfig())
}

func newAnomalyServiceWith(repo repository.ComplaintRepository, cfg config.AnomalyConfig) *AnomalyService {
	return NewAnomalyService(AnomalyDependencies{
		ComplaintRepo: repo,
		Config:        cfg,
		Clock:         func() time.Time { return fixedNow },
		Metrics:       observability.NewMetrics(),
	})
}

// complaintsPerUser creates resolved complaints so only the volume detector reacts.
func complaintsPerUser(counts map[int64]int) []domain.Complaint {
	var records []domain.Complaint
	id := int64(1)
	for user, n := range counts {
		for i := 0; i < n; i++ {
			created := hoursAgo(float64(id))
			records = append(records, domain.Complaint{
				ID:          id,
				Category:    domain.CategoryCarpentry,
				Status:      domain.ComplaintStatusResolved,
				RaisedBy:    user,
				CreatedAt:   created,
				ResolvedAt:  timePtr(created.Add(time.Hour)),
				Description: "",
			})
			id++
		}
	}
	return records
}

func TestDetectHighVolumeUsersFlagsOutlier(t *testing.T) {
	svc := newAnomalyService(complaintsPerUser(map[int64]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 30}))

	found, err := svc.DetectHighVolumeUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)

	a := found[0]
	assert.Equal(t, domain.AnomalyHighUserVolume, a.Type)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
	assert.Equal(t, "User 5 has raised 30 tickets (mean=6.8, z=2.00)", a.Description)

	userID, _ := a.Details.Get("userId")
	assert.Equal(t, int64(5), userID)
	mean, _ := a.Details.Get("mean")
	assert.Equal(t, "6.8", mean)
}

func TestDetectHighVolumeUsersMediumAtThreshold(t *testing.T) {
	svc := newAnomalyService(complaintsPerUser(map[int64]int{1: 10, 2: 10}))

	found, err := svc.DetectHighVolumeUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, a := range found {
		assert.Equal(t, domain.SeverityMedium, a.Severity)
		z, _ := a.Details.Get("zScore")
		assert.Equal(t, "0.00", z)
	}
}

func TestDetectHighVolumeUsersByZScoreAlone(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	cfg.HighUserTicketThreshold = 100
	counts := map[int64]int{10: 9}
	for user := int64(1); user <= 9; user++ {
		counts[user] = 1
	}
	svc := newAnomalyServiceWith(repository.NewMemoryComplaintRepository(complaintsPerUser(counts)), cfg)

	found, err := svc.DetectHighVolumeUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.SeverityMedium, found[0].Severity)
	assert.Equal(t, "User 10 has raised 9 tickets (mean=1.8, z=3.00)", found[0].Description)
}

func complaintsPerDay(counts []int) []domain.Complaint {
	var records []domain.Complaint
	id := int64(1)
	start := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for day, n := range counts {
		for i := 0; i < n; i++ {
			created := start.AddDate(0, 0, day).Add(time.Duration(i) * time.Minute)
			records = append(records, domain.Complaint{
				ID:         id,
				Category:   domain.CategoryElectrical,
				Status:     domain.ComplaintStatusResolved,
				RaisedBy:   id,
				CreatedAt:  created,
				ResolvedAt: timePtr(created.Add(time.Hour)),
			})
			id++
		}
	}
	return records
}

func TestDetectDailySpike(t *testing.T) {
	svc := newAnomalyService(complaintsPerDay([]int{1, 1, 1, 1, 1, 1, 10}))

	found, err := svc.DetectDailySpike(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)

	a := found[0]
	assert.Equal(t, domain.AnomalyDailySpike, a.Type)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
	assert.Equal(t, "Ticket spike detected on 2025-02-07: 10 tickets (z=2.45)", a.Description)
	date, _ := a.Details.Get("date")
	assert.Equal(t, "2025-02-07", date)
}

func TestDetectDailySpikeNeedsThreePoints(t *testing.T) {
	svc := newAnomalyService(complaintsPerDay([]int{1, 50}))

	found, err := svc.DetectDailySpike(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestDetectDailySpikeFlatSeries(t *testing.T) {
	svc := newAnomalyService(complaintsPerDay([]int{4, 4, 4, 4}))

	found, err := svc.DetectDailySpike(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func describe(id int64, category domain.Category, text string) domain.Complaint {
	created := hoursAgo(float64(id))
	return domain.Complaint{
		ID:          id,
		Category:    category,
		Status:      domain.ComplaintStatusResolved,
		RaisedBy:    id,
		CreatedAt:   created,
		ResolvedAt:  timePtr(created.Add(time.Hour)),
		Description: text,
	}
}

func TestDetectDuplicateTickets(t *testing.T) {
	svc := newAnomalyService([]domain.Complaint{
		describe(1, domain.CategoryPlumbing, "Water tap leaking in bathroom"),
		describe(2, domain.CategoryPlumbing, "water tap leaking in bathroom sink"),
		describe(3, domain.CategoryElectrical, "water tap leaking in bathroom"),
		describe(4, domain.CategoryPlumbing, "window glass cracked"),
	})

	found, err := svc.DetectDuplicateTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)

	a := found[0]
	assert.Equal(t, domain.AnomalyDuplicateTicket, a.Type)
	assert.Equal(t, domain.SeverityMedium, a.Severity)
	assert.Equal(t, "Tickets #1 and #2 in category PLUMBING appear similar (similarity=83%)", a.Description)
	ids, _ := a.Details.Get("ticketIds")
	assert.Equal(t, []int64{1, 2}, ids)
	sim, _ := a.Details.Get("similarity")
	assert.Equal(t, "0.83", sim)
}

func TestDetectDuplicateTicketsPolicy(t *testing.T) {
	records := []domain.Complaint{
		describe(1, domain.CategoryRagging, "loud music every night"),
		describe(2, domain.CategoryRagging, "loud music every night"),
		describe(3, domain.CategoryRagging, "loud music every night"),
	}

	found, err := newAnomalyService(records).DetectDuplicateTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Tickets #1 and #2 in category RAGGING appear similar (similarity=100%)", found[0].Description)
	assert.Equal(t, "Tickets #1 and #3 in category RAGGING appear similar (similarity=100%)", found[1].Description)

	cfg := config.DefaultAnomalyConfig()
	cfg.DuplicatePolicy = config.DuplicateSkipEitherFlagged
	found, err = newAnomalyServiceWith(repository.NewMemoryComplaintRepository(records), cfg).
		DetectDuplicateTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestDetectDuplicateTicketsCategoryOrder(t *testing.T) {
	svc := newAnomalyService([]domain.Complaint{
		describe(1, domain.CategoryRagging, "same words here"),
		describe(2, domain.CategoryRagging, "same words here"),
		describe(3, domain.CategoryCarpentry, "same words here"),
		describe(4, domain.CategoryCarpentry, "same words here"),
	})

	found, err := svc.DetectDuplicateTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	category, _ := found[0].Details.Get("category")
	assert.Equal(t, "CARPENTRY", category)
	category, _ = found[1].Details.Get("category")
	assert.Equal(t, "RAGGING", category)
}

func TestDetectDuplicateTicketsIgnoresEmptyDescriptions(t *testing.T) {
	svc := newAnomalyService([]domain.Complaint{
		describe(1, domain.CategoryPlumbing, ""),
		describe(2, domain.CategoryPlumbing, "  "),
	})

	found, err := svc.DetectDuplicateTickets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func openComplaint(id int64, hoursOpen float64) domain.Complaint {
	return domain.Complaint{
		ID:        id,
		Category:  domain.CategoryPlumbing,
		Status:    domain.ComplaintStatusOpen,
		RaisedBy:  40 + id,
		CreatedAt: hoursAgo(hoursOpen),
	}
}

func TestDetectSlowResolution(t *testing.T) {
	resolvedAt := hoursAgo(90)
	svc := newAnomalyService([]domain.Complaint{
		{ID: 1, Category: domain.CategoryElectrical, Status: domain.ComplaintStatusResolved, RaisedBy: 1,
			CreatedAt: hoursAgo(100), ResolvedAt: &resolvedAt},
		openComplaint(2, 25),
		openComplaint(3, 50),
		openComplaint(4, 5),
	})

	found, err := svc.DetectSlowResolution(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, domain.SeverityMedium, found[0].Severity)
	assert.Equal(t, "Ticket #2 has been open for 25h (avg=10.0h, threshold=20.0h)", found[0].Description)
	assert.Equal(t, domain.SeverityHigh, found[1].Severity)
	hours, _ := found[1].Details.Get("hoursOpen")
	assert.Equal(t, int64(50), hours)
	status, _ := found[1].Details.Get("status")
	assert.Equal(t, "OPEN", status)
}

func TestDetectSlowResolutionWithoutAverage(t *testing.T) {
	svc := newAnomalyService([]domain.Complaint{openComplaint(1, 500)})

	found, err := svc.DetectSlowResolution(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestDetectSlowResolutionZeroAverage(t *testing.T) {
	created := hoursAgo(100)
	svc := newAnomalyService([]domain.Complaint{
		{ID: 1, Category: domain.CategoryElectrical, Status: domain.ComplaintStatusResolved, RaisedBy: 1,
			CreatedAt: created, ResolvedAt: &created},
		openComplaint(2, 500),
	})

	found, err := svc.DetectSlowResolution(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDetectSLAViolations(t *testing.T) {
	svc := newAnomalyService([]domain.Complaint{
		openComplaint(1, 49),
		openComplaint(2, 48),
		openComplaint(3, 47),
		{ID: 4, Category: domain.CategoryPlumbing, Status: domain.ComplaintStatusInProgress, RaisedBy: 9,
			CreatedAt: hoursAgo(72.5)},
		describe(5, domain.CategoryPlumbing, "fixed long ago"),
	})

	found, err := svc.DetectSLAViolations(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "Ticket #1 breached 48h SLA (49h open)", found[0].Description)
	assert.Equal(t, "Ticket #4 breached 48h SLA (72h open)", found[1].Description)
	for _, a := range found {
		assert.Equal(t, domain.AnomalySLAViolation, a.Type)
		assert.Equal(t, domain.SeverityHigh, a.Severity)
	}
	raisedBy, _ := found[1].Details.Get("raisedBy")
	assert.Equal(t, int64(9), raisedBy)
}

func TestDetectAllMatchesDetectorOrder(t *testing.T) {
	records := append(complaintsPerUser(map[int64]int{100: 25}),
		describe(200, domain.CategoryPlumbing, "pipe burst in corridor"),
		describe(201, domain.CategoryPlumbing, "pipe burst in corridor"),
		openComplaint(300, 60),
	)
	svc := newAnomalyService(records)
	ctx := context.Background()

	all, err := svc.DetectAll(ctx)
	require.NoError(t, err)

	var expected []domain.Anomaly
	for _, run := range []func(context.Context) ([]domain.Anomaly, error){
		svc.DetectHighVolumeUsers,
		svc.DetectDailySpike,
		svc.DetectDuplicateTickets,
		svc.DetectSlowResolution,
		svc.DetectSLAViolations,
	} {
		found, err := run(ctx)
		require.NoError(t, err)
		expected = append(expected, found...)
	}
	assert.Equal(t, expected, all)
	require.NotEmpty(t, all)
	assert.Equal(t, domain.AnomalyHighUserVolume, all[0].Type)
	assert.Equal(t, domain.AnomalySLAViolation, all[len(all)-1].Type)
}

func TestDetectAllEmptyStore(t *testing.T) {
	all, err := newAnomalyService(nil).DetectAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestDetectAllPropagatesStoreError(t *testing.T) {
	sentinel := errors.New("store offline")
	repo := failingRepo{ComplaintRepository: repository.NewMemoryComplaintRepository(nil), err: sentinel}

	all, err := newAnomalyServiceWith(repo, config.DefaultAnomalyConfig()).DetectAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, all)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), DetectorHighVolumeUsers)
}

func TestSkipPair(t *testing.T) {
	assert.False(t, skipPair(config.DuplicateSkipBothFlagged, true, false))
	assert.True(t, skipPair(config.DuplicateSkipBothFlagged, true, true))
	assert.True(t, skipPair(config.DuplicateSkipEitherFlagged, false, true))
	assert.False(t, skipPair(config.DuplicateSkipEitherFlagged, false, false))
}
