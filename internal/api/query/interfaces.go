package query

import (
	"context"

	"github.com/stockchat/agent-backend/internal/entity"
)

type QueryUsecase interface {
	Run(ctx context.Context, question string) (*entity.Answer, error)
}
