package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
)

// Retriever fetches the document chunks most similar to a question.
// Matches below the score threshold are discarded; with cosine scores in
// [-1, 1] a threshold above 1 filters everything out.
type Retriever struct {
	embedder  EmbeddingModel
	index     VectorSearcher
	topK      int
	threshold float32
	logger    *zap.Logger
}

func NewRetriever(cfg *config.Config, embedder EmbeddingModel, index VectorSearcher, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder:  embedder,
		index:     index,
		topK:      cfg.Retriever.TopK,
		threshold: cfg.Retriever.ScoreThreshold,
		logger:    logger,
	}
}

// Retrieve returns the passing chunks ordered by descending score. Ties
// keep their index order, so results are stable for a given index state.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]entity.ScoredChunk, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := r.index.Query(ctx, vector, r.topK)
	if err != nil {
		return nil, err
	}

	passing := make([]entity.ScoredChunk, 0, len(matches))
	for _, m := range matches {
		if m.Score >= r.threshold {
			passing = append(passing, m)
		}
	}

	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].Score > passing[j].Score
	})

	ctxzap.Debug(ctx, "context retrieved",
		zap.Int("matches", len(matches)),
		zap.Int("passing", len(passing)),
	)

	return passing, nil
}
