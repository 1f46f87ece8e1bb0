package adserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const decisionDiv = "div1"

// DecisionClient performs the real-time ad-decision request. It sits on the
// page-render hot path, so the timeout is deliberately tight (100ms by
// default) and a timed-out request is treated as "nothing to show", never as
// an error.
type DecisionClient struct {
	engineURL  string
	networkID  int
	siteID     int
	adTypeID   int
	httpClient *http.Client
	log        *zap.Logger
}

func NewDecisionClient(engineURL string, networkID, siteID, adTypeID int, timeout time.Duration, log *zap.Logger) *DecisionClient {
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	return &DecisionClient{
		engineURL: engineURL,
		networkID: networkID,
		siteID:    siteID,
		adTypeID:  adTypeID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type placement struct {
	DivName   string `json:"divName"`
	NetworkID int    `json:"networkId"`
	SiteID    int    `json:"siteId"`
	AdTypes   []int  `json:"adTypes"`
}

type decisionRequest struct {
	Placements []placement `json:"placements"`
	Keywords   []string    `json:"keywords"`
}

type decisionContent struct {
	Body string `json:"body"`
}

type decision struct {
	ImpressionURL string            `json:"impressionUrl"`
	ClickURL      string            `json:"clickUrl"`
	Contents      []decisionContent `json:"contents"`
}

type decisionResponse struct {
	Decisions map[string]*decision `json:"decisions"`
}

// Request asks the engine for one decision over the given keywords. A nil
// result with a nil error means no eligible decision — whether because the
// engine said so or because it failed to answer in time.
func (c *DecisionClient) Request(ctx context.Context, keywords []string) (*DecisionResult, error) {
	body, err := json.Marshal(decisionRequest{
		Placements: []placement{{
			DivName:   decisionDiv,
			NetworkID: c.networkID,
			SiteID:    c.siteID,
			AdTypes:   []int{c.adTypeID},
		}},
		Keywords: keywords,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.engineURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.log.Info("decision request timed out")
			return nil, nil
		}
		return nil, &APIError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: "decision request failed"}
	}

	var dr decisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decoding decision response: %w", err)
	}

	d := dr.Decisions[decisionDiv]
	if d == nil {
		return nil, nil
	}
	if len(d.Contents) == 0 {
		return nil, fmt.Errorf("decision has no contents")
	}

	// The content body is our own CreativePayload, JSON-encoded at sync
	// time. Failing to parse it means we served a creative we did not
	// write, which is a contract violation, not a recoverable condition.
	var payload CreativePayload
	if err := json.Unmarshal([]byte(d.Contents[0].Body), &payload); err != nil {
		return nil, fmt.Errorf("parsing creative payload: %w", err)
	}

	return &DecisionResult{
		LinkID:     payload.Link,
		CampaignID: payload.Campaign,
		Target:     payload.Target,
		ImpPixel:   d.ImpressionURL,
		ClickURL:   d.ClickURL,
	}, nil
}
