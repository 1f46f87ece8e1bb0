package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoserve/backend/internal/models"
)

// TrafficRepo reads the per-day billable delivery counts written by the
// traffic pipeline. This service never writes traffic rows.
type TrafficRepo struct {
	pool *pgxpool.Pool
}

func NewTrafficRepo(pool *pgxpool.Pool) *TrafficRepo {
	return &TrafficRepo{pool: pool}
}

func (r *TrafficRepo) BillableTraffic(ctx context.Context, campaignID uuid.UUID) ([]models.DailyTraffic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, impressions, clicks
		FROM traffic_daily WHERE campaign_id = $1
		ORDER BY day
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traffic []models.DailyTraffic
	for rows.Next() {
		var t models.DailyTraffic
		if err := rows.Scan(&t.Day, &t.Impressions, &t.Clicks); err != nil {
			return nil, err
		}
		traffic = append(traffic, t)
	}
	return traffic, rows.Err()
}

// LastModified is the watermark the reconciliation pass checks before
// billing anything: traffic must have settled through the cutoff date.
func (r *TrafficRepo) LastModified(ctx context.Context) (time.Time, error) {
	var ts *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(updated_at) FROM traffic_daily`).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}
