package models

import (
	"time"

	"github.com/google/uuid"
)

// PromotionLogEntry is an append-only, operator-readable audit record
// attached to a promoted link.
type PromotionLogEntry struct {
	ID        uuid.UUID `json:"id"`
	LinkID    uuid.UUID `json:"link_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
