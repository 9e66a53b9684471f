package polygon

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

// Connector wraps the Polygon.io stock financials API.
type Connector struct {
	statementLimit int
	connector      *pkghttp.Connector
	retryOpts      []retry.Option
	logger         *zap.Logger
}

func NewConnector(cfg *config.Config, logger *zap.Logger) *Connector {
	return &Connector{
		statementLimit: cfg.Tools.Polygon.StatementLimit,
		retryOpts:      cfg.Env.Retry.ToRetryOptions(),
		logger:         logger,
		connector: common.NewBaseConnector(cfg.Env.PolygonURL, cfg.Env.HTTPClient, logger,
			pkghttp.WithAuthToken(cfg.Env.PolygonAPIKey),
		),
	}
}

// Financials is one reported filing with the figures the agent cares
// about pulled out of the nested statements.
type Financials struct {
	Ticker       string `json:"ticker"`
	CompanyName  string `json:"company_name"`
	FiscalYear   string `json:"fiscal_year"`
	FiscalPeriod string `json:"fiscal_period"`

	Revenue     float64 `json:"revenue"`
	NetIncome   float64 `json:"net_income"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`
}

type financialValue struct {
	Value float64 `json:"value"`
}

type financialsResponse struct {
	Results []struct {
		CompanyName  string `json:"company_name"`
		FiscalYear   string `json:"fiscal_year"`
		FiscalPeriod string `json:"fiscal_period"`
		Financials   struct {
			IncomeStatement struct {
				Revenues  financialValue `json:"revenues"`
				NetIncome financialValue `json:"net_income_loss"`
			} `json:"income_statement"`
			BalanceSheet struct {
				Assets      financialValue `json:"assets"`
				Liabilities financialValue `json:"liabilities"`
				Equity      financialValue `json:"equity"`
			} `json:"balance_sheet"`
		} `json:"financials"`
	} `json:"results"`
}

// Financials fetches the most recent reported financials for a ticker.
func (c *Connector) Financials(ctx context.Context, ticker string) ([]Financials, error) {
	ctxzap.Debug(ctx, "polygon financials", zap.String("ticker", ticker))

	endpoint := fmt.Sprintf("/vX/reference/financials?ticker=%s&limit=%d",
		url.QueryEscape(ticker), c.statementLimit)

	var resp financialsResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &resp)
	}, append(c.retryOpts, retry.Context(ctx))...)
	if err != nil {
		return nil, fmt.Errorf("%w: polygon financials: %v", entity.ErrToolUnavailable, err)
	}

	out := make([]Financials, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, Financials{
			Ticker:       ticker,
			CompanyName:  r.CompanyName,
			FiscalYear:   r.FiscalYear,
			FiscalPeriod: r.FiscalPeriod,
			Revenue:      r.Financials.IncomeStatement.Revenues.Value,
			NetIncome:    r.Financials.IncomeStatement.NetIncome.Value,
			Assets:       r.Financials.BalanceSheet.Assets.Value,
			Liabilities:  r.Financials.BalanceSheet.Liabilities.Value,
			Equity:       r.Financials.BalanceSheet.Equity.Value,
		})
	}

	ctxzap.Info(ctx, "polygon financials fetched", zap.Int("filings", len(out)))
	return out, nil
}
