package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/pkg/logger"
)

// timeoutAnswer is returned when the agent runs out of reasoning steps.
// The request itself succeeded, so this is a 200, not an error.
const timeoutAnswer = "I could not complete the reasoning for this question in time. Please try rephrasing or asking a more specific question."

type Handler struct {
	usecase QueryUsecase
}

func NewHandler(usecase QueryUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Query handles POST /query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "answering question", zap.Int("question_length", len(req.Question)))

	answer, err := h.usecase.Run(ctx, req.Question)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "question answered", zap.Int("sources", len(answer.Sources)))

	h.respondJSON(w, http.StatusOK, &entity.QueryResponse{
		Answer:  answer.Text,
		Sources: answer.Sources,
	})
}

// Helper methods
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrWorkflowTimeout) {
		ctxzap.Warn(ctx, "agent ran out of reasoning steps", zap.Error(err))
		h.respondJSON(w, http.StatusOK, &entity.QueryResponse{Answer: timeoutAnswer})
	} else if errors.Is(err, entity.ErrEmptyQuestion) {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	} else if errors.Is(err, entity.ErrEmbedding) || errors.Is(err, entity.ErrChatCompletion) ||
		errors.Is(err, entity.ErrIndexUnavailable) {
		h.respondError(ctx, w, http.StatusBadGateway, "upstream service failure", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
