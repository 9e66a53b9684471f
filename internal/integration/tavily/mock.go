package tavily

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns canned search results for local runs and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Search(ctx context.Context, query string) (*SearchResponse, error) {
	ctxzap.Info(ctx, "[MOCK] tavily search", zap.String("query", query))

	return &SearchResponse{
		Answer: "[mock] curated answer for: " + query,
		Results: []SearchResult{
			{
				Title:   "Mock market article",
				URL:     "https://example.com/market-news",
				Content: "[mock] market search content for: " + query,
				Score:   0.9,
			},
		},
	}, nil
}
