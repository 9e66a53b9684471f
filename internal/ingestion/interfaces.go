package ingestion

import (
	"context"

	"github.com/stockchat/agent-backend/internal/entity"
)

type EmbeddingModel interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, vectors []entity.Vector) (int, error)
}
