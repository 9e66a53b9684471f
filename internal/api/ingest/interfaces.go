package ingest

import (
	"context"

	"github.com/stockchat/agent-backend/internal/entity"
)

type IngestUsecase interface {
	Ingest(ctx context.Context, files []entity.FileData) (int, error)
}
