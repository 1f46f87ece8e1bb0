package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoserve/backend/internal/models"
	"github.com/shopspring/decimal"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `
	id, link_id, community_name, start_date, end_date, bid, cpm,
	daily_impressions, impression_cap, serve_even, transaction_id, status,
	remote_creative_id, remote_flight_id, remote_cfmap_id, refund_amount,
	created_at, updated_at
`

func scanCampaign(row interface{ Scan(dest ...any) error }) (*models.PromoCampaign, error) {
	var c models.PromoCampaign
	err := row.Scan(&c.ID, &c.LinkID, &c.CommunityName, &c.StartDate, &c.EndDate,
		&c.Bid, &c.CPM, &c.DailyImpressions, &c.ImpressionCap, &c.ServeEven,
		&c.TransactionID, &c.Status, &c.RemoteCreativeID, &c.RemoteFlightID,
		&c.RemoteCfMapID, &c.RefundAmount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PromoCampaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	return scanCampaign(row)
}

// ListEligibleForSync returns campaigns that should be live on the adserver:
// accepted, backed by a charged transaction, and attached to an accepted link.
func (r *CampaignRepo) ListEligibleForSync(ctx context.Context, day time.Time) ([]models.PromoCampaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns c
		WHERE c.status = $1
		  AND c.transaction_id > 0
		  AND c.start_date <= $2 AND c.end_date >= $2
		  AND EXISTS (SELECT 1 FROM links l WHERE l.id = c.link_id AND l.status = $3)
		ORDER BY c.created_at
	`, models.CampaignStatusAccepted, day, models.LinkStatusAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

// ListEndedOn selects campaigns whose delivery window closed on the given
// date, excluding freebies and test campaigns with no real transaction.
func (r *CampaignRepo) ListEndedOn(ctx context.Context, day time.Time) ([]models.PromoCampaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE end_date = $1 AND transaction_id > 0
		ORDER BY created_at
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

// LiveCommunityNames returns the distinct target communities of campaigns
// live on the given day. The empty string marks default-placement campaigns.
func (r *CampaignRepo) LiveCommunityNames(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT community_name FROM campaigns
		WHERE status = $1 AND start_date <= $2 AND end_date >= $2
	`, models.CampaignStatusAccepted, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *CampaignRepo) SetRemoteCreativeID(ctx context.Context, id uuid.UUID, remoteID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET remote_creative_id = $1, updated_at = now() WHERE id = $2
	`, remoteID, id)
	return err
}

func (r *CampaignRepo) SetRemoteFlightID(ctx context.Context, id uuid.UUID, remoteID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET remote_flight_id = $1, updated_at = now() WHERE id = $2
	`, remoteID, id)
	return err
}

func (r *CampaignRepo) SetRemoteCfMapID(ctx context.Context, id uuid.UUID, remoteID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET remote_cfmap_id = $1, updated_at = now() WHERE id = $2
	`, remoteID, id)
	return err
}

// SetRefundAmount records the terminal billing outcome. Writing it marks the
// campaign finalized; reconciliation skips campaigns that already have one.
func (r *CampaignRepo) SetRefundAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET refund_amount = $1, updated_at = now()
		WHERE id = $2 AND refund_amount IS NULL
	`, amount, id)
	return err
}

func collectCampaigns(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.PromoCampaign, error) {
	var campaigns []models.PromoCampaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}
