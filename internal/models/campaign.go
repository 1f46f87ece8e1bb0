package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CampaignStatusAccepted = "accepted"
	CampaignStatusPending  = "pending"
	CampaignStatusVoided   = "voided"
)

// PromoCampaign is one paid delivery window for a promoted link. Start and
// end dates carry no time component. The three remote ids are attached as
// the adserver objects get created; RefundAmount is the terminal marker set
// exactly once by billing reconciliation — its presence means the campaign
// is finalized and must never be re-billed or re-refunded.
type PromoCampaign struct {
	ID               uuid.UUID        `json:"id"`
	LinkID           uuid.UUID        `json:"link_id"`
	CommunityName    string           `json:"community_name"` // empty = default placement
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	Bid              decimal.Decimal  `json:"bid"`
	CPM              decimal.Decimal  `json:"cpm"`
	DailyImpressions int              `json:"daily_impressions"`
	ImpressionCap    int              `json:"impression_cap"`
	ServeEven        bool             `json:"serve_even"`
	TransactionID    int64            `json:"transaction_id"` // 0 = freebie/test
	Status           string           `json:"status"`
	RemoteCreativeID *int64           `json:"remote_creative_id,omitempty"`
	RemoteFlightID   *int64           `json:"remote_flight_id,omitempty"`
	RemoteCfMapID    *int64           `json:"remote_cfmap_id,omitempty"`
	RefundAmount     *decimal.Decimal `json:"refund_amount,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Finalized reports whether billing reconciliation has already recorded a
// terminal outcome for this campaign.
func (c *PromoCampaign) Finalized() bool {
	return c.RefundAmount != nil
}

// HasTransaction excludes free and test campaigns from billing.
func (c *PromoCampaign) HasTransaction() bool {
	return c.TransactionID > 0
}
