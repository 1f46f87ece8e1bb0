package adserver

// Wire shapes for the four managed object kinds. Field names follow the
// vendor's PascalCase JSON convention. Create and update use different
// request shapes: immutable fields (names, start dates, owning ids) are set
// only at creation, while the update sets fully replace every field they
// cover — the sync engine re-sends the whole set on every run.

type RemoteCampaign struct {
	ID           int64   `json:"Id"`
	Name         string  `json:"Name"`
	AdvertiserID int     `json:"AdvertiserId"`
	Flights      []int64 `json:"Flights"`
	StartDate    string  `json:"StartDate"`
	IsActive     bool    `json:"IsActive"`
	IsDeleted    bool    `json:"IsDeleted"`
	Price        float64 `json:"Price"`
}

type CreateCampaignRequest struct {
	Name         string  `json:"Name"`
	AdvertiserID int     `json:"AdvertiserId"`
	Flights      []int64 `json:"Flights"`
	StartDate    string  `json:"StartDate"`
	IsActive     bool    `json:"IsActive"`
	IsDeleted    bool    `json:"IsDeleted"`
	Price        float64 `json:"Price"`
}

type UpdateCampaignRequest struct {
	AdvertiserID int     `json:"AdvertiserId"`
	IsActive     bool    `json:"IsActive"`
	IsDeleted    bool    `json:"IsDeleted"`
	Price        float64 `json:"Price"`
}

type RemoteCreative struct {
	ID           int64  `json:"Id"`
	Title        string `json:"Title"`
	Body         string `json:"Body"`
	ScriptBody   string `json:"ScriptBody"`
	AdvertiserID int    `json:"AdvertiserId"`
	AdTypeID     int    `json:"AdTypeId"`
	Alt          string `json:"Alt"`
	URL          string `json:"Url"`
	IsHTMLJS     bool   `json:"IsHTMLJS"`
	IsSync       bool   `json:"IsSync"`
	IsActive     bool   `json:"IsActive"`
	IsDeleted    bool   `json:"IsDeleted"`
}

type CreateCreativeRequest struct {
	Title        string `json:"Title"`
	Body         string `json:"Body"`
	ScriptBody   string `json:"ScriptBody"`
	AdvertiserID int    `json:"AdvertiserId"`
	AdTypeID     int    `json:"AdTypeId"`
	Alt          string `json:"Alt"`
	URL          string `json:"Url"`
	IsHTMLJS     bool   `json:"IsHTMLJS"`
	IsSync       bool   `json:"IsSync"`
	IsActive     bool   `json:"IsActive"`
	IsDeleted    bool   `json:"IsDeleted"`
}

type UpdateCreativeRequest struct {
	Body         string `json:"Body"`
	ScriptBody   string `json:"ScriptBody"`
	AdvertiserID int    `json:"AdvertiserId"`
	AdTypeID     int    `json:"AdTypeId"`
	Alt          string `json:"Alt"`
	URL          string `json:"Url"`
	IsHTMLJS     bool   `json:"IsHTMLJS"`
	IsSync       bool   `json:"IsSync"`
	IsActive     bool   `json:"IsActive"`
	IsDeleted    bool   `json:"IsDeleted"`
}

// Flight option/goal/rate enums, per the vendor API reference.
const (
	OptionTypeCPM       = 1
	OptionTypeRemainder = 2

	GoalTypeImpressions = 1
	GoalTypePercentage  = 2

	RateTypeCPM = 2

	DistributionTypePercentage = 2
)

type RemoteFlight struct {
	ID         int64   `json:"Id"`
	Name       string  `json:"Name"`
	CampaignID int64   `json:"CampaignId"`
	PriorityID int     `json:"PriorityId"`
	StartDate  string  `json:"StartDate"`
	EndDate    string  `json:"EndDate"`
	Price      float64 `json:"Price"`
	OptionType int     `json:"OptionType"`
	// Impressions is the vendor's name for the delivery goal.
	Impressions int    `json:"Impressions"`
	IsUnlimited bool   `json:"IsUnlimited"`
	IsFullSpeed bool   `json:"IsFullSpeed"`
	Keywords    string `json:"Keywords"`
	GoalType    int    `json:"GoalType"`
	RateType    int    `json:"RateType"`
	IsFreqCap   bool   `json:"IsFreqCap"`
	IsActive    bool   `json:"IsActive"`
	IsDeleted   bool   `json:"IsDeleted"`
}

type CreateFlightRequest struct {
	Name        string  `json:"Name"`
	CampaignID  int64   `json:"CampaignId"`
	PriorityID  int     `json:"PriorityId"`
	StartDate   string  `json:"StartDate"`
	EndDate     string  `json:"EndDate"`
	Price       float64 `json:"Price"`
	OptionType  int     `json:"OptionType"`
	Impressions int     `json:"Impressions"`
	IsUnlimited bool    `json:"IsUnlimited"`
	IsFullSpeed bool    `json:"IsFullSpeed"`
	Keywords    string  `json:"Keywords"`
	GoalType    int     `json:"GoalType"`
	RateType    int     `json:"RateType"`
	IsFreqCap   bool    `json:"IsFreqCap"`
	IsActive    bool    `json:"IsActive"`
	IsDeleted   bool    `json:"IsDeleted"`
}

type UpdateFlightRequest struct {
	CampaignID  int64   `json:"CampaignId"`
	PriorityID  int     `json:"PriorityId"`
	StartDate   string  `json:"StartDate"`
	EndDate     string  `json:"EndDate"`
	Price       float64 `json:"Price"`
	OptionType  int     `json:"OptionType"`
	Impressions int     `json:"Impressions"`
	IsUnlimited bool    `json:"IsUnlimited"`
	IsFullSpeed bool    `json:"IsFullSpeed"`
	Keywords    string  `json:"Keywords"`
	GoalType    int     `json:"GoalType"`
	RateType    int     `json:"RateType"`
	IsFreqCap   bool    `json:"IsFreqCap"`
	IsActive    bool    `json:"IsActive"`
	IsDeleted   bool    `json:"IsDeleted"`
}

type CreativeRef struct {
	ID int64 `json:"Id"`
}

// RemoteCreativeFlightMap joins one creative to one flight. It is addressed
// under its flight: create posts to the flight, get/update need both ids.
type RemoteCreativeFlightMap struct {
	ID               int64       `json:"Id"`
	CampaignID       int64       `json:"CampaignId"`
	FlightID         int64       `json:"FlightId"`
	Creative         CreativeRef `json:"Creative"`
	PublisherID      int         `json:"PublisherAccountId"`
	SizeOverride     bool        `json:"SizeOverride"`
	Percentage       int         `json:"Percentage"`
	DistributionType int         `json:"DistributionType"`
	Iframe           bool        `json:"Iframe"`
	Impressions      int         `json:"Impressions"`
	IsActive         bool        `json:"IsActive"`
	IsDeleted        bool        `json:"IsDeleted"`
}

type CreateCreativeFlightMapRequest struct {
	CampaignID       int64       `json:"CampaignId"`
	FlightID         int64       `json:"FlightId"`
	Creative         CreativeRef `json:"Creative"`
	PublisherID      int         `json:"PublisherAccountId"`
	SizeOverride     bool        `json:"SizeOverride"`
	Percentage       int         `json:"Percentage"`
	DistributionType int         `json:"DistributionType"`
	Iframe           bool        `json:"Iframe"`
	Impressions      int         `json:"Impressions"`
	IsActive         bool        `json:"IsActive"`
	IsDeleted        bool        `json:"IsDeleted"`
}

type UpdateCreativeFlightMapRequest = CreateCreativeFlightMapRequest

// CreativePayload is the JSON document embedded in a creative's ScriptBody.
// The decision endpoint echoes it back inside the winning decision's
// contents, which is how a served ad is traced back to its local entities.
type CreativePayload struct {
	Link     string `json:"link"`
	Campaign string `json:"campaign"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Target   string `json:"target"`
}

// DecisionResult is the flat projection of a winning decision.
type DecisionResult struct {
	LinkID     string `json:"link_id"`
	CampaignID string `json:"campaign_id"`
	Target     string `json:"target"`
	ImpPixel   string `json:"imp_pixel"`
	ClickURL   string `json:"click_url"`
}
