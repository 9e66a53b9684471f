package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
)

// EmbeddingModel turns text into vectors for similarity search.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces the next assistant message for a conversation. The
// returned message carries either final content or tool-call requests.
type ChatModel interface {
	Complete(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolSpec) (*entity.ChatMessage, error)
}

// NewEmbeddingModel dispatches on the configured provider name and
// returns the embedding handle. The handle is a stateless client over
// network calls and is safe to share once constructed.
func NewEmbeddingModel(cfg *config.Config, logger *zap.Logger) (EmbeddingModel, error) {
	embedding := cfg.ActiveEmbedding()

	switch cfg.Provider() {
	case config.ProviderGoogle:
		return NewGeminiClient(cfg, logger), nil
	case config.ProviderAzure:
		return newAzureClient(cfg, logger), nil
	case config.ProviderGroq:
		// Groq has no embedding API: its chat models are paired with
		// Google embeddings, matching the vector_db.groq dimension.
		logger.Info("groq provider uses Google embeddings",
			zap.String("embedding_model", embedding.ModelName),
		)
		return NewGeminiClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedProvider, cfg.Provider())
	}
}

// NewChatModel dispatches on the configured provider name and returns the
// chat-completion handle.
func NewChatModel(cfg *config.Config, logger *zap.Logger) (ChatModel, error) {
	switch cfg.Provider() {
	case config.ProviderGoogle:
		return NewGeminiClient(cfg, logger), nil
	case config.ProviderAzure:
		return newAzureClient(cfg, logger), nil
	case config.ProviderGroq:
		return newGroqClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedProvider, cfg.Provider())
	}
}
