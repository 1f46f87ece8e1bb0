package models

import "time"

// DailyTraffic is one day of billable delivery for a campaign, counted by
// our own traffic pipeline. These counts, not the adserver's, are the
// authoritative basis for billing.
type DailyTraffic struct {
	Day         time.Time `json:"day"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
}
