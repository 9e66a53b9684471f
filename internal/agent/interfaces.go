package agent

import (
	"context"
	"encoding/json"

	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/bing"
	"github.com/stockchat/agent-backend/internal/integration/polygon"
	"github.com/stockchat/agent-backend/internal/integration/tavily"
)

// ChatModel produces the next assistant turn given the conversation so
// far and the tools the agent may call.
type ChatModel interface {
	Complete(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolSpec) (*entity.ChatMessage, error)
}

// EmbeddingModel embeds a single query for similarity search.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs nearest-neighbor search over the document index.
type VectorSearcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]entity.ScoredChunk, error)
}

// Tool is one callable capability exposed to the chat model.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Backends the built-in tools delegate to.

type MarketSearcher interface {
	Search(ctx context.Context, query string) (*tavily.SearchResponse, error)
}

type WebSearcher interface {
	Search(ctx context.Context, query string) ([]bing.WebPage, error)
}

type FinancialsFetcher interface {
	Financials(ctx context.Context, ticker string) ([]polygon.Financials, error)
}
