package adserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateCampaignSendsAuthAndReturnsAssignedID(t *testing.T) {
	var gotKey, gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		gotMethod = r.Method

		var req CreateCampaignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		_ = json.NewEncoder(w).Encode(RemoteCampaign{
			ID:       9001,
			Name:     req.Name,
			IsActive: req.IsActive,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", zap.NewNop())
	got, err := client.CreateCampaign(context.Background(), CreateCampaignRequest{
		Name:     "promo by author",
		IsActive: true,
	})
	require.NoError(t, err)

	require.Equal(t, "secret-key", gotKey)
	require.Equal(t, "/campaign", gotPath)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, int64(9001), got.ID)
	require.True(t, got.IsActive)
}

func TestCreativeFlightMapPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_ = json.NewEncoder(w).Encode(RemoteCreativeFlightMap{ID: 77, FlightID: 5})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", zap.NewNop())
	ctx := context.Background()

	_, err := client.CreateCreativeFlightMap(ctx, 5, CreateCreativeFlightMapRequest{FlightID: 5})
	require.NoError(t, err)
	_, err = client.GetCreativeFlightMap(ctx, 5, 77)
	require.NoError(t, err)
	_, err = client.UpdateCreativeFlightMap(ctx, 5, 77, UpdateCreativeFlightMapRequest{FlightID: 5})
	require.NoError(t, err)

	require.Equal(t, []string{
		"POST /flight/5/creative",
		"GET /flight/5/creative/77",
		"PUT /flight/5/creative/77",
	}, paths)
}

func TestErrorResponsesCarryStatusAndBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, "no such flight"},
		{"server error", http.StatusInternalServerError, "boom"},
		{"unauthorized", http.StatusUnauthorized, "bad key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "k", zap.NewNop())
			_, err := client.GetFlight(context.Background(), 1)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Contains(t, apiErr.Detail, tt.body)
		})
	}
}

func TestTransportFailureIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "k", zap.NewNop())
	_, err := client.GetCampaign(context.Background(), 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Zero(t, apiErr.StatusCode, "no response means no status code")
}

func TestMalformedResponseBodyIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", zap.NewNop())
	_, err := client.GetCreative(context.Background(), 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusOK, apiErr.StatusCode)
}
