package polygon

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns canned financials for local runs and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Financials(ctx context.Context, ticker string) ([]Financials, error) {
	ctxzap.Info(ctx, "[MOCK] polygon financials", zap.String("ticker", ticker))

	return []Financials{
		{
			Ticker:       ticker,
			CompanyName:  "Mock Corp",
			FiscalYear:   "2025",
			FiscalPeriod: "FY",
			Revenue:      1_000_000,
			NetIncome:    100_000,
			Assets:       2_000_000,
			Liabilities:  800_000,
			Equity:       1_200_000,
		},
	}, nil
}
