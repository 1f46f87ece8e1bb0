package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoserve/backend/internal/models"
)

type LinkRepo struct {
	pool *pgxpool.Pool
}

func NewLinkRepo(pool *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

func (r *LinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PromotedLink, error) {
	var l models.PromotedLink
	err := r.pool.QueryRow(ctx, `
		SELECT id, author_id, title, url, status, remote_campaign_id, created_at, updated_at
		FROM links WHERE id = $1
	`, id).Scan(&l.ID, &l.AuthorID, &l.Title, &l.URL, &l.Status,
		&l.RemoteCampaignID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SetRemoteCampaignID attaches the adserver campaign id assigned on first
// creation. All later syncs go through update using this id.
func (r *LinkRepo) SetRemoteCampaignID(ctx context.Context, id uuid.UUID, remoteID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE links SET remote_campaign_id = $1, updated_at = now() WHERE id = $2
	`, remoteID, id)
	return err
}
