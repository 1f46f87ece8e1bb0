package adserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the adserver management API. One instance is shared by
// both binaries; the API key is injected at construction, never read from
// ambient state.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Detail: string(detail)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("decoding response: %v", err)}
		}
	}
	return nil
}

func (c *Client) GetCampaign(ctx context.Context, id int64) (*RemoteCampaign, error) {
	var out RemoteCampaign
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/campaign/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*RemoteCampaign, error) {
	var out RemoteCampaign
	if err := c.do(ctx, http.MethodPost, "/campaign", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCampaign(ctx context.Context, id int64, req UpdateCampaignRequest) (*RemoteCampaign, error) {
	var out RemoteCampaign
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/campaign/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCreative(ctx context.Context, id int64) (*RemoteCreative, error) {
	var out RemoteCreative
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/creative/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCreative(ctx context.Context, req CreateCreativeRequest) (*RemoteCreative, error) {
	var out RemoteCreative
	if err := c.do(ctx, http.MethodPost, "/creative", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCreative(ctx context.Context, id int64, req UpdateCreativeRequest) (*RemoteCreative, error) {
	var out RemoteCreative
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/creative/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFlight(ctx context.Context, id int64) (*RemoteFlight, error) {
	var out RemoteFlight
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/flight/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateFlight(ctx context.Context, req CreateFlightRequest) (*RemoteFlight, error) {
	var out RemoteFlight
	if err := c.do(ctx, http.MethodPost, "/flight", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateFlight(ctx context.Context, id int64, req UpdateFlightRequest) (*RemoteFlight, error) {
	var out RemoteFlight
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/flight/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCreativeFlightMap(ctx context.Context, flightID, id int64) (*RemoteCreativeFlightMap, error) {
	var out RemoteCreativeFlightMap
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/flight/%d/creative/%d", flightID, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCreativeFlightMap(ctx context.Context, flightID int64, req CreateCreativeFlightMapRequest) (*RemoteCreativeFlightMap, error) {
	var out RemoteCreativeFlightMap
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/flight/%d/creative", flightID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCreativeFlightMap(ctx context.Context, flightID, id int64, req UpdateCreativeFlightMapRequest) (*RemoteCreativeFlightMap, error) {
	var out RemoteCreativeFlightMap
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/flight/%d/creative/%d", flightID, id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
