package tavily

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/common"
	pkghttp "github.com/stockchat/agent-backend/pkg/http"
)

// Connector wraps the Tavily search API: curated search with an answer
// synthesized server-side and a configurable result cap.
type Connector struct {
	maxResults int
	connector  *pkghttp.Connector
	retryOpts  []retry.Option
	logger     *zap.Logger
}

func NewConnector(cfg *config.Config, logger *zap.Logger) *Connector {
	return &Connector{
		maxResults: cfg.Tools.Tavily.MaxResults,
		retryOpts:  cfg.Env.Retry.ToRetryOptions(),
		logger:     logger,
		connector: common.NewBaseConnector(cfg.Env.TavilyURL, cfg.Env.HTTPClient, logger,
			pkghttp.WithAuthToken(cfg.Env.TavilyAPIKey),
		),
	}
}

type searchRequest struct {
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// SearchResult is one Tavily hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the Tavily answer plus its supporting results.
type SearchResponse struct {
	Answer  string         `json:"answer"`
	Results []SearchResult `json:"results"`
}

// Search runs a curated search for the query.
func (c *Connector) Search(ctx context.Context, query string) (*SearchResponse, error) {
	ctxzap.Debug(ctx, "tavily search", zap.String("query", query))

	req := searchRequest{
		Query:             query,
		MaxResults:        c.maxResults,
		SearchDepth:       "advanced",
		IncludeAnswer:     true,
		IncludeRawContent: true,
	}

	var resp SearchResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, "/search", req, &resp)
	}, append(c.retryOpts, retry.Context(ctx))...)
	if err != nil {
		return nil, fmt.Errorf("%w: tavily search: %v", entity.ErrToolUnavailable, err)
	}

	ctxzap.Info(ctx, "tavily search completed", zap.Int("results", len(resp.Results)))
	return &resp, nil
}
