package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	pkgRetry "github.com/stockchat/agent-backend/internal/pkg/retry"
)

func connectorConfig(baseURL string) *config.Config {
	return &config.Config{
		Settings: config.Settings{
			Tools: config.ToolsConfig{
				Tavily: config.TavilyConfig{MaxResults: 5},
			},
		},
		Env: config.EnvConfig{
			TavilyAPIKey: "tavily-key",
			TavilyURL:    baseURL,
			HTTPClient: config.HTTPClientConfig{
				RequestTimeout:        5 * time.Second,
				ConnTimeout:           time.Second,
				KeepAlive:             time.Second,
				IdleConnTimeout:       time.Second,
				ResponseHeaderTimeout: 5 * time.Second,
			},
			Retry: pkgRetry.RetryConfig{
				Attempts: 1,
				Delay:    time.Millisecond,
				MaxDelay: time.Millisecond,
			},
		},
	}
}

func TestConnector_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tavily-key", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nvidia earnings", req.Query)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, "advanced", req.SearchDepth)
		assert.True(t, req.IncludeAnswer)
		assert.True(t, req.IncludeRawContent)

		json.NewEncoder(w).Encode(SearchResponse{
			Answer: "NVIDIA beat expectations.",
			Results: []SearchResult{
				{Title: "Earnings report", URL: "https://example.com/nvda", Content: "Revenue up.", Score: 0.95},
			},
		})
	}))
	defer server.Close()

	c := NewConnector(connectorConfig(server.URL), zaptest.NewLogger(t))

	resp, err := c.Search(context.Background(), "nvidia earnings")

	require.NoError(t, err)
	assert.Equal(t, "NVIDIA beat expectations.", resp.Answer)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://example.com/nvda", resp.Results[0].URL)
}

func TestConnector_SearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewConnector(connectorConfig(server.URL), zaptest.NewLogger(t))

	_, err := c.Search(context.Background(), "anything")

	assert.ErrorIs(t, err, entity.ErrToolUnavailable)
}
