package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stockchat/agent-backend/internal/entity"
	pkgRetry "github.com/stockchat/agent-backend/internal/pkg/retry"
)

// Recognized model providers.
const (
	ProviderGoogle = "google"
	ProviderAzure  = "azure"
	ProviderGroq   = "groq"
)

// Config is the immutable application configuration: static settings from
// the YAML file plus secrets and tuning from the environment. Loaded once
// at startup and passed to every component at construction time.
type Config struct {
	Settings
	Env EnvConfig
}

// Settings mirrors the YAML configuration file.
type Settings struct {
	ModelProvider ModelProviderConfig        `mapstructure:"model_provider"`
	VectorDB      map[string]VectorDBConfig  `mapstructure:"vector_db"`
	Retriever     RetrieverConfig            `mapstructure:"retriever"`
	Embedding     map[string]EmbeddingConfig `mapstructure:"embedding_model"`
	LLM           map[string]LLMConfig       `mapstructure:"llm"`
	Tools         ToolsConfig                `mapstructure:"tools"`
	Agent         AgentConfig                `mapstructure:"agent"`
}

type ModelProviderConfig struct {
	Provider string `mapstructure:"provider"`
}

type VectorDBConfig struct {
	IndexName string `mapstructure:"index_name"`
	Dimension int    `mapstructure:"dimension"`
}

type RetrieverConfig struct {
	TopK           int     `mapstructure:"top_k"`
	ScoreThreshold float32 `mapstructure:"score_threshold"`
}

type EmbeddingConfig struct {
	ModelName string `mapstructure:"model_name"`
}

type LLMConfig struct {
	ModelName  string `mapstructure:"model_name"`
	APIVersion string `mapstructure:"api_version"`
}

type ToolsConfig struct {
	Tavily  TavilyConfig  `mapstructure:"tavily"`
	Bing    BingConfig    `mapstructure:"bing"`
	Polygon PolygonConfig `mapstructure:"polygon"`
}

type TavilyConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type BingConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type PolygonConfig struct {
	StatementLimit int `mapstructure:"statement_limit"`
}

type AgentConfig struct {
	MaxSteps int `mapstructure:"max_steps"`
}

// EnvConfig holds secrets and runtime tuning. Key values must never be
// logged.
type EnvConfig struct {
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":8000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	EnableMocks bool   `env:"ENABLE_MOCKS" envDefault:"false"`

	GoogleAPIKey        string `env:"GOOGLE_API_KEY"`
	GroqAPIKey          string `env:"GROQ_API_KEY"`
	AzureOpenAIAPIKey   string `env:"AZURE_OPENAI_API_KEY"`
	AzureOpenAIEndpoint string `env:"AZURE_OPENAI_ENDPOINT"`
	PineconeAPIKey      string `env:"PINECONE_API_KEY"`
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TavilyAPIKey        string `env:"TAVILY_API_KEY"`
	BingAPIKey          string `env:"BING_API_KEY"`
	PolygonAPIKey       string `env:"POLYGON_API_KEY"`

	// Document format for answers too long for a telegram message.
	TelegramExportFormat string `env:"TELEGRAM_EXPORT_FORMAT" envDefault:"pdf"`

	// Service URLs, overridable for tests and private deployments.
	PineconeControlURL string `env:"PINECONE_CONTROL_URL" envDefault:"https://api.pinecone.io"`
	PineconeIndexHost  string `env:"PINECONE_INDEX_HOST"` // skips control-plane host resolution when set
	TavilyURL          string `env:"TAVILY_URL" envDefault:"https://api.tavily.com"`
	BingURL            string `env:"BING_URL" envDefault:"https://api.bing.microsoft.com"`
	PolygonURL         string `env:"POLYGON_URL" envDefault:"https://api.polygon.io"`
	GeminiURL          string `env:"GEMINI_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`

	HTTPClient HTTPClientConfig     `envPrefix:"OUTBOUND_"`
	Retry      pkgRetry.RetryConfig `envPrefix:"RETRY_"`
	FileUpload FileUploadConfig     `envPrefix:"FILE_UPLOAD_"`
}

// HTTPClientConfig tunes the shared outbound HTTP client used by all
// service connectors. LLM calls can be slow, hence the generous defaults.
type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"90s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"90s"`
}

// FileUploadConfig holds upload limits.
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`  // 10 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"52428800"` // 50 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"16"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"67108864"` // multipart parse budget
}

// Load reads the YAML settings file at path and the process environment
// and returns the validated configuration. Pure beyond reading: no global
// viper state, no side effects.
func Load(path string) (*Config, error) {
	// Best effort: in containerized environments variables are usually
	// set externally.
	_ = godotenv.Load()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", entity.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(&cfg.Settings); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := env.Parse(&cfg.Env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 3
	}
	if cfg.Agent.MaxSteps == 0 {
		cfg.Agent.MaxSteps = 6
	}
	if cfg.Tools.Tavily.MaxResults == 0 {
		cfg.Tools.Tavily.MaxResults = 5
	}
	if cfg.Tools.Bing.MaxResults == 0 {
		cfg.Tools.Bing.MaxResults = 5
	}
	if cfg.Tools.Polygon.StatementLimit == 0 {
		cfg.Tools.Polygon.StatementLimit = 1
	}
}

func validate(cfg *Config) error {
	provider := cfg.ModelProvider.Provider

	switch provider {
	case ProviderGoogle, ProviderAzure, ProviderGroq:
	default:
		return fmt.Errorf("%w: %q", entity.ErrUnsupportedProvider, provider)
	}

	vdb, ok := cfg.VectorDB[provider]
	if !ok {
		return fmt.Errorf("vector_db.%s is not configured", provider)
	}
	if vdb.IndexName == "" {
		return fmt.Errorf("vector_db.%s.index_name must not be empty", provider)
	}
	if vdb.Dimension <= 0 {
		return fmt.Errorf("vector_db.%s.dimension must be positive, got %d", provider, vdb.Dimension)
	}

	if _, ok := cfg.LLM[provider]; !ok {
		return fmt.Errorf("llm.%s is not configured", provider)
	}

	if cfg.Retriever.TopK < 1 {
		return fmt.Errorf("retriever.top_k must be at least 1, got %d", cfg.Retriever.TopK)
	}

	if cfg.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be at least 1, got %d", cfg.Agent.MaxSteps)
	}

	if cfg.Env.EnableMocks {
		return nil
	}

	return validateSecrets(cfg, provider)
}

func validateSecrets(cfg *Config, provider string) error {
	var missing []string

	if cfg.Env.PineconeAPIKey == "" {
		missing = append(missing, "PINECONE_API_KEY")
	}

	switch provider {
	case ProviderGoogle:
		if cfg.Env.GoogleAPIKey == "" {
			missing = append(missing, "GOOGLE_API_KEY")
		}
	case ProviderAzure:
		if cfg.Env.AzureOpenAIAPIKey == "" {
			missing = append(missing, "AZURE_OPENAI_API_KEY")
		}
		if cfg.Env.AzureOpenAIEndpoint == "" {
			missing = append(missing, "AZURE_OPENAI_ENDPOINT")
		}
	case ProviderGroq:
		if cfg.Env.GroqAPIKey == "" {
			missing = append(missing, "GROQ_API_KEY")
		}
		// Groq pairs with Google embeddings
		if cfg.Env.GoogleAPIKey == "" {
			missing = append(missing, "GOOGLE_API_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %v", missing)
	}

	return nil
}

// Provider returns the configured provider name.
func (c *Config) Provider() string {
	return c.ModelProvider.Provider
}

// ActiveVectorDB returns the index settings for the configured provider.
// Ingestion and retrieval both resolve the index through here, so the two
// can never disagree on the index name.
func (c *Config) ActiveVectorDB() VectorDBConfig {
	return c.VectorDB[c.ModelProvider.Provider]
}

// ActiveLLM returns the chat model settings for the configured provider.
func (c *Config) ActiveLLM() LLMConfig {
	return c.LLM[c.ModelProvider.Provider]
}

// ActiveEmbedding returns the embedding model settings for the configured
// provider.
func (c *Config) ActiveEmbedding() EmbeddingConfig {
	return c.Embedding[c.ModelProvider.Provider]
}
