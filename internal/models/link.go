package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LinkStatusAccepted = "accepted"
	LinkStatusPending  = "pending"
	LinkStatusVoided   = "voided"
)

// PromotedLink is a piece of promoted content owned by the host application.
// This service only ever attaches the remote campaign id once the link has
// been mirrored to the adserver; a nil RemoteCampaignID means "not yet
// created remotely".
type PromotedLink struct {
	ID               uuid.UUID `json:"id"`
	AuthorID         uuid.UUID `json:"author_id"`
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	Status           string    `json:"status"`
	RemoteCampaignID *int64    `json:"remote_campaign_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
