package bing

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns canned web results for local runs and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Search(ctx context.Context, query string) ([]WebPage, error) {
	ctxzap.Info(ctx, "[MOCK] bing web search", zap.String("query", query))

	return []WebPage{
		{
			Name:    "Mock web page",
			URL:     "https://example.com/result",
			Snippet: "[mock] web search snippet for: " + query,
		},
	}, nil
}
