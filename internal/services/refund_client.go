package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/promoserve/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GatewayError is a refund the billing gateway declined or could not take.
// The reconciliation pass logs it and leaves the campaign non-finalized so a
// later run can retry.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("billing gateway unavailable: %s", e.Detail)
	}
	return fmt.Sprintf("billing gateway returned %d: %s", e.StatusCode, e.Detail)
}

// RefundClient calls the external billing gateway's internal refund API.
type RefundClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewRefundClient(baseURL string, log *zap.Logger) *RefundClient {
	return &RefundClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type refundRequest struct {
	AccountID     string `json:"account_id"`
	AccountName   string `json:"account_name"`
	TransactionID int64  `json:"transaction_id"`
	CampaignID    string `json:"campaign_id"`
	Amount        string `json:"amount"`
}

type refundResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (c *RefundClient) Refund(ctx context.Context, account *models.Account, transactionID int64, campaignID uuid.UUID, amount decimal.Decimal) error {
	body, err := json.Marshal(refundRequest{
		AccountID:     account.ID.String(),
		AccountName:   account.Name,
		TransactionID: transactionID,
		CampaignID:    campaignID.String(),
		Amount:        amount.StringFixed(2),
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/refunds", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &GatewayError{StatusCode: resp.StatusCode, Detail: string(b)}
	}

	var result refundResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("decoding response: %v", err)}
	}
	if !result.OK {
		return &GatewayError{StatusCode: resp.StatusCode, Detail: result.Reason}
	}
	return nil
}
