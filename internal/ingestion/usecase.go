package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/entity"
)

// Usecase runs the ingestion pipeline: extract text, split into chunks,
// embed, upsert into the vector index. Nothing is cached locally: the
// index is the sole persistent store.
type Usecase struct {
	embedder EmbeddingModel
	index    VectorIndex
	splitter *Splitter
	logger   *zap.Logger
}

func NewUsecase(embedder EmbeddingModel, index VectorIndex, logger *zap.Logger) *Usecase {
	return &Usecase{
		embedder: embedder,
		index:    index,
		splitter: NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
		logger:   logger,
	}
}

// Ingest processes the uploaded files and returns the total number of
// chunks indexed. Provider failures surface unretried.
func (uc *Usecase) Ingest(ctx context.Context, files []entity.FileData) (int, error) {
	if len(files) == 0 {
		return 0, entity.ErrNoFiles
	}

	total := 0
	for _, file := range files {
		count, err := uc.ingestFile(ctx, file)
		if err != nil {
			return total, err
		}
		total += count
	}

	ctxzap.Info(ctx, "ingestion pipeline finished",
		zap.Int("files", len(files)),
		zap.Int("chunks_indexed", total),
	)

	return total, nil
}

func (uc *Usecase) ingestFile(ctx context.Context, file entity.FileData) (int, error) {
	text, err := ExtractText(file)
	if err != nil {
		return 0, err
	}

	chunks := uc.splitter.Split(text)
	if len(chunks) == 0 {
		ctxzap.Warn(ctx, "no text extracted, skipping file",
			zap.String("filename", file.Filename),
		)
		return 0, nil
	}

	embeddings, err := uc.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", file.Filename, err)
	}

	vectors := make([]entity.Vector, 0, len(chunks))
	for i, chunk := range chunks {
		vectors = append(vectors, entity.Vector{
			ID:     uuid.New().String(),
			Values: embeddings[i],
			Text:   chunk,
			Source: file.Filename,
		})
	}

	count, err := uc.index.Upsert(ctx, vectors)
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", file.Filename, err)
	}

	ctxzap.Info(ctx, "file ingested",
		zap.String("filename", file.Filename),
		zap.Int("chunks", count),
	)

	return count, nil
}
