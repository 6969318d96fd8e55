package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// ComplaintRepository is the read-only query surface the analytics engine relies on.
type ComplaintRepository interface {
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.ComplaintStatus) (int64, error)
	CountByCategory(ctx context.Context, category domain.Category) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	GroupCountByStatus(ctx context.Context) ([]domain.GroupCount, error)
	GroupCountByCategory(ctx context.Context) ([]domain.GroupCount, error)
	GroupCountByBlock(ctx context.Context) ([]domain.GroupCount, error)
	// AverageResolutionHours returns nil when no complaint has been resolved.
	AverageResolutionHours(ctx context.Context) (*float64, error)
	// TopUsersRanked returns per-user counts, highest first.
	TopUsersRanked(ctx context.Context) ([]domain.UserCount, error)
	// Trend returns bucketed creation counts in ascending bucket order.
	Trend(ctx context.Context, granularity domain.Granularity) ([]domain.TrendPoint, error)
	AllRecords(ctx context.Context) ([]domain.Complaint, error)
	// OpenRecordsOlderThan returns unresolved complaints created strictly before ts.
	OpenRecordsOlderThan(ctx context.Context, ts time.Time) ([]domain.Complaint, error)
}

const complaintColumns = `id, category, status, raised_by, created_at, resolved_at, description,
               COALESCE(block, ''), COALESCE(sub_block, ''), COALESCE(room_no, ''),
               COALESCE(assigned_to, ''), COALESCE(message_type, '')`

const createdUTC = `(created_at AT TIME ZONE 'UTC')`

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the Postgres-backed repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM complaints`)
}

func (r *complaintRepository) CountByStatus(ctx context.Context, status domain.ComplaintStatus) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM complaints WHERE status=$1`, status)
}

func (r *complaintRepository) CountByCategory(ctx context.Context, category domain.Category) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM complaints WHERE category=$1`, category)
}

func (r *complaintRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM complaints WHERE raised_by=$1`, userID)
}

func (r *complaintRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *complaintRepository) GroupCountByStatus(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupCount(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status ORDER BY status`)
}

func (r *complaintRepository) GroupCountByCategory(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupCount(ctx, `SELECT category, COUNT(*) FROM complaints GROUP BY category ORDER BY category`)
}

func (r *complaintRepository) GroupCountByBlock(ctx context.Context) ([]domain.GroupCount, error) {
	query := fmt.Sprintf(`
        SELECT COALESCE(NULLIF(block, ''), '%s') AS label, COUNT(*)
        FROM complaints GROUP BY label ORDER BY label`, domain.UnknownBlock)
	return r.groupCount(ctx, query)
}

func (r *complaintRepository) groupCount(ctx context.Context, query string) ([]domain.GroupCount, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.GroupCount
	for rows.Next() {
		var row domain.GroupCount
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *complaintRepository) AverageResolutionHours(ctx context.Context) (*float64, error) {
	const query = `
        SELECT (AVG(EXTRACT(EPOCH FROM (resolved_at - created_at))) / 3600)::float8
        FROM complaints
        WHERE status = 'RESOLVED' AND resolved_at IS NOT NULL`
	var avg *float64
	if err := r.pool.QueryRow(ctx, query).Scan(&avg); err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *complaintRepository) TopUsersRanked(ctx context.Context) ([]domain.UserCount, error) {
	const query = `
        SELECT raised_by, COUNT(*) AS total
        FROM complaints
        GROUP BY raised_by
        ORDER BY total DESC, raised_by ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UserCount
	for rows.Next() {
		var row domain.UserCount
		if err := rows.Scan(&row.UserID, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *complaintRepository) Trend(ctx context.Context, granularity domain.Granularity) ([]domain.TrendPoint, error) {
	if granularity == domain.GranularityHourly {
		return r.hourlyTrend(ctx)
	}

	var format string
	switch granularity {
	case domain.GranularityDaily:
		format = `YYYY-MM-DD`
	case domain.GranularityWeekly:
		format = `IYYY-"W"IW`
	case domain.GranularityMonthly:
		format = `YYYY-MM`
	default:
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	query := fmt.Sprintf(`
        SELECT TO_CHAR(%s, '%s') AS bucket, COUNT(*)
        FROM complaints
        GROUP BY bucket
        ORDER BY bucket`, createdUTC, format)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrendPoint
	for rows.Next() {
		var point domain.TrendPoint
		if err := rows.Scan(&point.Bucket, &point.Count); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

func (r *complaintRepository) hourlyTrend(ctx context.Context) ([]domain.TrendPoint, error) {
	query := fmt.Sprintf(`
        SELECT EXTRACT(HOUR FROM %s)::int AS hour, COUNT(*)
        FROM complaints
        GROUP BY hour
        ORDER BY hour`, createdUTC)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrendPoint
	for rows.Next() {
		var (
			hour  int
			count int64
		)
		if err := rows.Scan(&hour, &count); err != nil {
			return nil, err
		}
		result = append(result, domain.TrendPoint{Bucket: strconv.Itoa(hour), Count: count})
	}
	return result, rows.Err()
}

func (r *complaintRepository) AllRecords(ctx context.Context) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints ORDER BY id`, complaintColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) OpenRecordsOlderThan(ctx context.Context, ts time.Time) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM complaints
        WHERE status <> 'RESOLVED' AND created_at < $1
        ORDER BY id`, complaintColumns)
	rows, err := r.pool.Query(ctx, query, ts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(
			&c.ID,
			&c.Category,
			&c.Status,
			&c.RaisedBy,
			&c.CreatedAt,
			&c.ResolvedAt,
			&c.Description,
			&c.Block,
			&c.SubBlock,
			&c.RoomNo,
			&c.AssignedTo,
			&c.MessageType,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
