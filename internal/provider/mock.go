package provider

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/entity"
)

// MockEmbeddingModel produces deterministic vectors without network
// access. Texts sharing words produce nearby vectors, which is enough for
// retrieval tests and local runs with ENABLE_MOCKS.
type MockEmbeddingModel struct {
	dimension int
	logger    *zap.Logger
}

func NewMockEmbeddingModel(dimension int, logger *zap.Logger) *MockEmbeddingModel {
	return &MockEmbeddingModel{dimension: dimension, logger: logger}
}

func (m *MockEmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("length", len(text)))

	vec := make([]float32, m.dimension)
	h := fnv.New32a()
	for _, r := range text {
		h.Write([]byte(string(r)))
		vec[int(h.Sum32())%m.dimension]++
	}

	// L2-normalize so cosine scores stay in a realistic range.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec, nil
}

func (m *MockEmbeddingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// MockChatModel answers every turn directly without tools.
type MockChatModel struct {
	logger *zap.Logger
}

func NewMockChatModel(logger *zap.Logger) *MockChatModel {
	return &MockChatModel{logger: logger}
}

func (m *MockChatModel) Complete(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolSpec) (*entity.ChatMessage, error) {
	ctxzap.Info(ctx, "[MOCK] chat completion",
		zap.Int("messages", len(messages)),
		zap.Int("tools", len(tools)),
	)

	var question string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.RoleUser {
			question = messages[i].Content
			break
		}
	}

	return &entity.ChatMessage{
		Role:    entity.RoleAssistant,
		Content: "[mock] I cannot reach a model provider right now, but I received: " + question,
	}, nil
}
