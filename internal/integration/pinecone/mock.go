package pinecone

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/entity"
)

// MockConnector is an in-memory stand-in for the vector index, used when
// ENABLE_MOCKS is set and in tests.
type MockConnector struct {
	mu      sync.RWMutex
	vectors []entity.Vector
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Upsert(ctx context.Context, vectors []entity.Vector) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vectors = append(m.vectors, vectors...)

	ctxzap.Info(ctx, "[MOCK] vectors upserted", zap.Int("count", len(vectors)))
	return len(vectors), nil
}

func (m *MockConnector) Query(ctx context.Context, vector []float32, topK int) ([]entity.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]entity.ScoredChunk, 0, len(m.vectors))
	for _, v := range m.vectors {
		matches = append(matches, entity.ScoredChunk{
			Chunk: entity.Chunk{ID: v.ID, Text: v.Text, Source: v.Source},
			Score: cosine(vector, v.Values),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}

	ctxzap.Debug(ctx, "[MOCK] vector query", zap.Int("matches", len(matches)))
	return matches, nil
}

// Len reports the number of stored vectors. Test helper.
func (m *MockConnector) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
