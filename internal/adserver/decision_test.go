package adserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decisionServer(t *testing.T, handler http.HandlerFunc) *DecisionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDecisionClient(srv.URL, 1, 2, 3, time.Second, zap.NewNop())
}

func TestDecisionRequestParsesWinningDecision(t *testing.T) {
	payload, _ := json.Marshal(CreativePayload{
		Link:     "link-123",
		Campaign: "camp-456",
		Title:    "promoted thing",
		Author:   "author",
		Target:   "gadgets",
	})

	client := decisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req decisionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Placements, 1)
		require.Equal(t, "div1", req.Placements[0].DivName)
		require.Equal(t, []string{"gadgets", "frontpage"}, req.Keywords)

		_ = json.NewEncoder(w).Encode(decisionResponse{
			Decisions: map[string]*decision{
				"div1": {
					ImpressionURL: "https://engine/i/abc",
					ClickURL:      "https://engine/c/abc",
					Contents:      []decisionContent{{Body: string(payload)}},
				},
			},
		})
	})

	got, err := client.Request(context.Background(), []string{"gadgets", "frontpage"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "link-123", got.LinkID)
	require.Equal(t, "camp-456", got.CampaignID)
	require.Equal(t, "gadgets", got.Target)
	require.Equal(t, "https://engine/i/abc", got.ImpPixel)
	require.Equal(t, "https://engine/c/abc", got.ClickURL)
}

func TestDecisionRequestNoFillReturnsNil(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null decision", `{"decisions":{"div1":null}}`},
		{"missing div", `{"decisions":{}}`},
		{"empty response", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := decisionServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.Request(context.Background(), []string{"frontpage"})
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}

func TestDecisionRequestTimeoutIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := NewDecisionClient(srv.URL, 1, 2, 3, 20*time.Millisecond, zap.NewNop())
	got, err := client.Request(context.Background(), []string{"frontpage"})
	require.NoError(t, err, "a slow engine must degrade to no-fill")
	require.Nil(t, got)
}

func TestDecisionRequestErrorStatus(t *testing.T) {
	client := decisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Request(context.Background(), []string{"frontpage"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestDecisionRequestRejectsMalformedPayload(t *testing.T) {
	client := decisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(decisionResponse{
			Decisions: map[string]*decision{
				"div1": {Contents: []decisionContent{{Body: "not json at all"}}},
			},
		})
	})

	_, err := client.Request(context.Background(), []string{"frontpage"})
	require.Error(t, err)
}

func TestDecisionRequestRejectsEmptyContents(t *testing.T) {
	client := decisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(decisionResponse{
			Decisions: map[string]*decision{"div1": {}},
		})
	})

	_, err := client.Request(context.Background(), []string{"frontpage"})
	require.Error(t, err)
}
