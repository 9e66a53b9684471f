package bing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/common"
	pkghttp "github.com/stockchat/agent-backend/pkg/http"
)

// Connector wraps the Bing Web Search API.
type Connector struct {
	maxResults int
	connector  *pkghttp.Connector
	retryOpts  []retry.Option
	logger     *zap.Logger
}

func NewConnector(cfg *config.Config, logger *zap.Logger) *Connector {
	return &Connector{
		maxResults: cfg.Tools.Bing.MaxResults,
		retryOpts:  cfg.Env.Retry.ToRetryOptions(),
		logger:     logger,
		connector: common.NewBaseConnector(cfg.Env.BingURL, cfg.Env.HTTPClient, logger,
			pkghttp.WithAPIKeyHeader("Ocp-Apim-Subscription-Key", cfg.Env.BingAPIKey),
		),
	}
}

// WebPage is one Bing web result.
type WebPage struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	WebPages struct {
		Value []WebPage `json:"value"`
	} `json:"webPages"`
}

// Search runs a web search for the query.
func (c *Connector) Search(ctx context.Context, query string) ([]WebPage, error) {
	ctxzap.Debug(ctx, "bing web search", zap.String("query", query))

	endpoint := fmt.Sprintf("/v7.0/search?q=%s&count=%d", url.QueryEscape(query), c.maxResults)

	var resp searchResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &resp)
	}, append(c.retryOpts, retry.Context(ctx))...)
	if err != nil {
		return nil, fmt.Errorf("%w: bing search: %v", entity.ErrToolUnavailable, err)
	}

	ctxzap.Info(ctx, "bing search completed", zap.Int("results", len(resp.WebPages.Value)))
	return resp.WebPages.Value, nil
}
