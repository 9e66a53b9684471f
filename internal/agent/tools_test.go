package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stockchat/agent-backend/internal/integration/polygon"
	"github.com/stockchat/agent-backend/internal/integration/tavily"
)

type countingTool struct {
	name   string
	result string
	err    error
	calls  int
}

func (c *countingTool) Name() string                { return c.name }
func (c *countingTool) Description() string         { return "test tool" }
func (c *countingTool) Parameters() json.RawMessage { return queryParameters }

func (c *countingTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	c.calls++
	return c.result, c.err
}

func TestToolSet_CachesResults(t *testing.T) {
	tool := &countingTool{name: "web_search", result: "cached result"}
	set := NewToolSet(zaptest.NewLogger(t), tool)

	args := json.RawMessage(`{"query":"nvidia"}`)

	first := set.Invoke(context.Background(), "web_search", args)
	second := set.Invoke(context.Background(), "web_search", args)

	assert.Equal(t, "cached result", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tool.calls, "second call should be served from cache")
}

func TestToolSet_DistinctArgumentsMissCache(t *testing.T) {
	tool := &countingTool{name: "web_search", result: "ok"}
	set := NewToolSet(zaptest.NewLogger(t), tool)

	set.Invoke(context.Background(), "web_search", json.RawMessage(`{"query":"aapl"}`))
	set.Invoke(context.Background(), "web_search", json.RawMessage(`{"query":"msft"}`))

	assert.Equal(t, 2, tool.calls)
}

func TestToolSet_FailingToolReturnsRecoveryMessage(t *testing.T) {
	tool := &countingTool{name: "market_search", err: errors.New("backend down")}
	set := NewToolSet(zaptest.NewLogger(t), tool)

	result := set.Invoke(context.Background(), "market_search", json.RawMessage(`{"query":"x"}`))

	assert.Equal(t, toolErrorMessage, result)
}

func TestToolSet_UnknownTool(t *testing.T) {
	set := NewToolSet(zaptest.NewLogger(t))

	result := set.Invoke(context.Background(), "nonexistent", json.RawMessage(`{}`))

	assert.Contains(t, result, "unknown tool")
}

func TestToolSet_Specs(t *testing.T) {
	set := NewToolSet(zaptest.NewLogger(t),
		NewMarketSearchTool(tavily.NewMockConnector(zaptest.NewLogger(t))),
		NewStockFinancialsTool(polygon.NewMockConnector(zaptest.NewLogger(t))),
	)

	specs := set.Specs()

	require.Len(t, specs, 2)
	assert.Equal(t, "market_search", specs[0].Name)
	assert.Equal(t, "stock_financials", specs[1].Name)
	assert.NotEmpty(t, specs[0].Description)
}

func TestStockFinancialsTool_FormatsFilings(t *testing.T) {
	tool := NewStockFinancialsTool(polygon.NewMockConnector(zaptest.NewLogger(t)))

	result, err := tool.Invoke(context.Background(), json.RawMessage(`{"ticker":"aapl"}`))

	require.NoError(t, err)
	assert.Contains(t, result, "AAPL")
	assert.Contains(t, result, "revenue")
}

func TestMarketSearchTool_IncludesAnswerAndResults(t *testing.T) {
	tool := NewMarketSearchTool(tavily.NewMockConnector(zaptest.NewLogger(t)))

	result, err := tool.Invoke(context.Background(), json.RawMessage(`{"query":"rate cuts"}`))

	require.NoError(t, err)
	assert.Contains(t, result, "curated answer")
	assert.Contains(t, result, "https://example.com/market-news")
}
