package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/entity"
)

const (
	toolCacheTTL     = 5 * time.Minute
	toolCacheSweep   = 10 * time.Minute
	toolErrorMessage = "tool is temporarily unavailable, answer from what you already know"
)

var queryParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "The search query."}
	},
	"required": ["query"]
}`)

var tickerParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"ticker": {"type": "string", "description": "The stock ticker symbol, e.g. AAPL."}
	},
	"required": ["ticker"]
}`)

type queryArgs struct {
	Query string `json:"query"`
}

type tickerArgs struct {
	Ticker string `json:"ticker"`
}

// ToolSet holds the tools by name and caches their results so repeated
// identical calls within one conversation do not hit the backend twice.
type ToolSet struct {
	tools  map[string]Tool
	specs  []entity.ToolSpec
	cache  *gocache.Cache
	logger *zap.Logger
}

func NewToolSet(logger *zap.Logger, tools ...Tool) *ToolSet {
	set := &ToolSet{
		tools:  make(map[string]Tool, len(tools)),
		cache:  gocache.New(toolCacheTTL, toolCacheSweep),
		logger: logger,
	}
	for _, tool := range tools {
		set.tools[tool.Name()] = tool
		set.specs = append(set.specs, entity.ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return set
}

// Specs lists the tool descriptions sent to the chat model.
func (s *ToolSet) Specs() []entity.ToolSpec {
	return s.specs
}

// Invoke runs the named tool. An unknown name or a failing backend
// produces an explanatory result string rather than an error, so the
// model can recover and answer without the tool.
func (s *ToolSet) Invoke(ctx context.Context, name string, args json.RawMessage) string {
	tool, ok := s.tools[name]
	if !ok {
		ctxzap.Warn(ctx, "model requested unknown tool", zap.String("tool", name))
		return fmt.Sprintf("unknown tool %q", name)
	}

	key := name + ":" + string(args)
	if cached, found := s.cache.Get(key); found {
		ctxzap.Debug(ctx, "tool result served from cache", zap.String("tool", name))
		return cached.(string)
	}

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		ctxzap.Warn(ctx, "tool invocation failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		return toolErrorMessage
	}

	s.cache.Set(key, result, gocache.DefaultExpiration)
	return result
}

// marketSearchTool answers market and finance questions via Tavily's
// curated search.
type marketSearchTool struct {
	backend MarketSearcher
}

func NewMarketSearchTool(backend MarketSearcher) Tool {
	return &marketSearchTool{backend: backend}
}

func (t *marketSearchTool) Name() string { return "market_search" }

func (t *marketSearchTool) Description() string {
	return "Search for current stock market news, prices and financial analysis. Use for questions about recent market events."
}

func (t *marketSearchTool) Parameters() json.RawMessage { return queryParameters }

func (t *marketSearchTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed queryArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}

	resp, err := t.backend.Search(ctx, parsed.Query)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if resp.Answer != "" {
		sb.WriteString(resp.Answer)
		sb.WriteString("\n\n")
	}
	for _, r := range resp.Results {
		fmt.Fprintf(&sb, "%s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	return sb.String(), nil
}

// webSearchTool runs a general web search via Bing.
type webSearchTool struct {
	backend WebSearcher
}

func NewWebSearchTool(backend WebSearcher) Tool {
	return &webSearchTool{backend: backend}
}

func (t *webSearchTool) Name() string { return "web_search" }

func (t *webSearchTool) Description() string {
	return "Search the web for general information not covered by the uploaded documents or market search."
}

func (t *webSearchTool) Parameters() json.RawMessage { return queryParameters }

func (t *webSearchTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed queryArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}

	pages, err := t.backend.Search(ctx, parsed.Query)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&sb, "%s (%s): %s\n", p.Name, p.URL, p.Snippet)
	}
	if sb.Len() == 0 {
		return "no results found", nil
	}
	return sb.String(), nil
}

// stockFinancialsTool fetches reported financial statements for a
// ticker via Polygon.
type stockFinancialsTool struct {
	backend FinancialsFetcher
}

func NewStockFinancialsTool(backend FinancialsFetcher) Tool {
	return &stockFinancialsTool{backend: backend}
}

func (t *stockFinancialsTool) Name() string { return "stock_financials" }

func (t *stockFinancialsTool) Description() string {
	return "Get the latest reported financial statements (revenue, net income, assets, liabilities, equity) for a stock ticker."
}

func (t *stockFinancialsTool) Parameters() json.RawMessage { return tickerParameters }

func (t *stockFinancialsTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed tickerArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}

	filings, err := t.backend.Financials(ctx, strings.ToUpper(strings.TrimSpace(parsed.Ticker)))
	if err != nil {
		return "", err
	}
	if len(filings) == 0 {
		return "no financial statements found for " + parsed.Ticker, nil
	}

	var sb strings.Builder
	for _, f := range filings {
		fmt.Fprintf(&sb, "%s (%s) %s %s: revenue %.0f, net income %.0f, assets %.0f, liabilities %.0f, equity %.0f\n",
			f.CompanyName, f.Ticker, f.FiscalYear, f.FiscalPeriod,
			f.Revenue, f.NetIncome, f.Assets, f.Liabilities, f.Equity)
	}
	return sb.String(), nil
}
