package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/pkg/logger"
	"github.com/stockchat/agent-backend/internal/pkg/validator"
)

type Handler struct {
	usecase   IngestUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(usecase IngestUsecase, cfg config.FileUploadConfig, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
	}
}

// Upload handles POST /upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Upload")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	headers := r.MultipartForm.File["files"]
	if err := h.validator.ValidateUpload(headers); err != nil {
		ctxzap.Warn(ctx, "upload validation failed", zap.Error(err))
		h.handleUsecaseError(ctx, w, err)
		return
	}

	files, err := readFiles(headers)
	if err != nil {
		ctxzap.Error(ctx, "failed to read uploaded files", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read uploaded files", err)
		return
	}

	ctxzap.Info(ctx, "ingesting uploaded files", zap.Int("file_count", len(files)))

	count, err := h.usecase.Ingest(ctx, files)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "files ingested successfully",
		zap.Int("file_count", len(files)),
		zap.Int("chunks_indexed", count),
	)

	h.respondJSON(w, http.StatusOK, &entity.UploadResponse{
		ChunksIndexed: count,
		Files:         len(files),
	})
}

func readFiles(headers []*multipart.FileHeader) ([]entity.FileData, error) {
	files := make([]entity.FileData, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}

		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		files = append(files, entity.FileData{
			Filename: fh.Filename,
			Content:  content,
		})
	}
	return files, nil
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
	if errors.Is(err, entity.ErrNoFiles) || errors.Is(err, entity.ErrUnsupportedFileType) ||
		errors.Is(err, entity.ErrFileTooLarge) || errors.Is(err, entity.ErrTooManyFiles) {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	} else if errors.Is(err, entity.ErrEmbedding) || errors.Is(err, entity.ErrIndexUnavailable) {
		h.respondError(ctx, w, http.StatusBadGateway, "upstream service failure", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
