package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoserve/backend/internal/models"
)

// PromotionLogRepo is the append-only audit trail operators read when a sync
// or refund goes sideways.
type PromotionLogRepo struct {
	pool *pgxpool.Pool
}

func NewPromotionLogRepo(pool *pgxpool.Pool) *PromotionLogRepo {
	return &PromotionLogRepo{pool: pool}
}

func (r *PromotionLogRepo) Add(ctx context.Context, linkID uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO promotion_log (link_id, message) VALUES ($1, $2)
	`, linkID, message)
	return err
}

func (r *PromotionLogRepo) ListByLink(ctx context.Context, linkID uuid.UUID, limit, offset int) ([]models.PromotionLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, link_id, message, created_at
		FROM promotion_log WHERE link_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, linkID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PromotionLogEntry
	for rows.Next() {
		var e models.PromotionLogEntry
		if err := rows.Scan(&e.ID, &e.LinkID, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
