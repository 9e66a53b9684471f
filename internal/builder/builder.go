package builder

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/agent"
	"github.com/stockchat/agent-backend/internal/api"
	ingestapi "github.com/stockchat/agent-backend/internal/api/ingest"
	queryapi "github.com/stockchat/agent-backend/internal/api/query"
	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/ingestion"
	"github.com/stockchat/agent-backend/internal/integration/bing"
	"github.com/stockchat/agent-backend/internal/integration/pinecone"
	"github.com/stockchat/agent-backend/internal/integration/polygon"
	"github.com/stockchat/agent-backend/internal/integration/tavily"
	"github.com/stockchat/agent-backend/internal/pkg/formatter"
	"github.com/stockchat/agent-backend/internal/pkg/logger"
	"github.com/stockchat/agent-backend/internal/pkg/validator"
	"github.com/stockchat/agent-backend/internal/provider"
	"github.com/stockchat/agent-backend/internal/telegram"
)

// components holds everything shared between the API server and the
// telegram bot.
type components struct {
	cfg       *config.Config
	logger    *zap.Logger
	ingestUC  *ingestion.Usecase
	workflow  *agent.Workflow
	validator *validator.Validator
}

func buildComponents(configPath string) (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Env.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building application",
		zap.String("provider", cfg.Provider()),
		zap.String("server_addr", cfg.Env.ServerAddr),
	)

	// Initialize model providers and external service connectors (with
	// mock support)
	var embedder provider.EmbeddingModel
	var chatModel provider.ChatModel
	var vectorIndex interface {
		ingestion.VectorIndex
		agent.VectorSearcher
	}
	var marketSearch agent.MarketSearcher
	var webSearch agent.WebSearcher
	var financials agent.FinancialsFetcher

	if cfg.Env.EnableMocks {
		log.Info("Using mock connectors for external services")
		embedder = provider.NewMockEmbeddingModel(cfg.ActiveVectorDB().Dimension, log)
		chatModel = provider.NewMockChatModel(log)
		vectorIndex = pinecone.NewMockConnector(log)
		marketSearch = tavily.NewMockConnector(log)
		webSearch = bing.NewMockConnector(log)
		financials = polygon.NewMockConnector(log)
	} else {
		log.Info("Using real connectors for external services")
		embedder, err = provider.NewEmbeddingModel(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("setup embedding model: %w", err)
		}
		chatModel, err = provider.NewChatModel(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("setup chat model: %w", err)
		}
		vectorIndex = pinecone.NewConnector(cfg, log)
		marketSearch = tavily.NewConnector(cfg, log)
		webSearch = bing.NewConnector(cfg, log)
		financials = polygon.NewConnector(cfg, log)
	}
	log.Info("Connectors initialized")

	// Initialize validators
	fileValidator := validator.NewFileValidator(cfg.Env.FileUpload)
	log.Info("Validators initialized")

	// Initialize use cases
	ingestUC := ingestion.NewUsecase(embedder, vectorIndex, log)

	toolSet := agent.NewToolSet(log,
		agent.NewMarketSearchTool(marketSearch),
		agent.NewWebSearchTool(webSearch),
		agent.NewStockFinancialsTool(financials),
	)
	retriever := agent.NewRetriever(cfg, embedder, vectorIndex, log)
	workflow := agent.NewWorkflow(cfg, chatModel, retriever, toolSet, log)
	log.Info("Use cases initialized")

	return &components{
		cfg:       cfg,
		logger:    log,
		ingestUC:  ingestUC,
		workflow:  workflow,
		validator: fileValidator,
	}, nil
}

func Build(configPath string) (*App, error) {
	c, err := buildComponents(configPath)
	if err != nil {
		return nil, err
	}

	// Setup API handlers
	ingestHandler := ingestapi.NewHandler(c.ingestUC, c.cfg.Env.FileUpload, c.validator)
	queryHandler := queryapi.NewHandler(c.workflow)
	c.logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(ingestHandler, queryHandler, c.logger)
	c.logger.Info("HTTP router configured")

	// Create HTTP server. Write timeout must outlast the slowest agent
	// loop, which chains several LLM calls.
	server := &http.Server{
		Addr:         c.cfg.Env.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	c.logger.Info("Application built successfully")

	return &App{
		server: server,
		logger: c.logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot(configPath string) (telegram.Bot, *zap.Logger, error) {
	c, err := buildComponents(configPath)
	if err != nil {
		return nil, nil, err
	}

	if c.cfg.Env.TelegramBotToken == "" {
		return nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	exporter, err := formatter.NewFactory().Create(c.cfg.Env.TelegramExportFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("setup answer exporter: %w", err)
	}

	bot, err := telegram.NewBot(c.cfg.Env.TelegramBotToken, c.workflow, c.ingestUC, exporter, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	c.logger.Info("Telegram bot built successfully")

	return bot, c.logger, nil
}
