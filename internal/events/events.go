package events

import "context"

// Event types
const (
	EventCampaignSynced      = "campaign_synced"
	EventLinkDeactivated     = "link_deactivated"
	EventCampaignDeactivated = "campaign_deactivated"
	EventCampaignFinalized   = "campaign_finalized"
	EventRefundIssued        = "refund_issued"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Publisher fans promotion lifecycle events out to interested consumers
// (host-app notifiers, dashboards). Publishing is best-effort: a dropped
// event never fails the operation that produced it.
type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}
