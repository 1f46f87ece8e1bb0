package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// PromoResponse is the renderable promotion handed to the page.
type PromoResponse struct {
	LinkID     string `json:"link_id"`
	CampaignID string `json:"campaign_id"`
	Target     string `json:"target"`
	ImpPixel   string `json:"imp_pixel"`
	ClickURL   string `json:"click_url"`
}

// PromoConfigResponse carries the adserver identifiers the page JS needs to
// build its own placements.
type PromoConfigResponse struct {
	SiteID       int `json:"site_id"`
	AdvertiserID int `json:"advertiser_id"`
	PriorityID   int `json:"priority_id"`
	ChannelID    int `json:"channel_id"`
	PublisherID  int `json:"publisher_id"`
	NetworkID    int `json:"network_id"`
	AdTypeID     int `json:"ad_type"`
}
