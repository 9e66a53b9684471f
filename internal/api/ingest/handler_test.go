package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/pkg/validator"
)

type fakeIngestUsecase struct {
	count int
	err   error
	files []entity.FileData
}

func (f *fakeIngestUsecase) Ingest(ctx context.Context, files []entity.FileData) (int, error) {
	f.files = files
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func uploadConfig() config.FileUploadConfig {
	return config.FileUploadConfig{
		MaxFileSize:   1 << 20,
		MaxTotalSize:  4 << 20,
		MaxFileCount:  4,
		MaxUploadSize: 8 << 20,
	}
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("file content"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, uc IngestUsecase, filenames ...string) *httptest.ResponseRecorder {
	t.Helper()

	cfg := uploadConfig()
	h := NewHandler(uc, cfg, validator.NewFileValidator(cfg))

	body, contentType := multipartBody(t, filenames...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	return rec
}

func TestUpload_Success(t *testing.T) {
	uc := &fakeIngestUsecase{count: 7}

	rec := doUpload(t, uc, "report.pdf", "filing.docx")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.ChunksIndexed)
	assert.Equal(t, 2, resp.Files)

	require.Len(t, uc.files, 2)
	assert.Equal(t, "report.pdf", uc.files[0].Filename)
	assert.Equal(t, []byte("file content"), uc.files[0].Content)
}

func TestUpload_NoFiles(t *testing.T) {
	uc := &fakeIngestUsecase{count: 1}

	rec := doUpload(t, uc)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uc.files)
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	uc := &fakeIngestUsecase{count: 1}

	rec := doUpload(t, uc, "notes.txt")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uc.files, "usecase must not run for rejected uploads")
}

func TestUpload_TooManyFiles(t *testing.T) {
	uc := &fakeIngestUsecase{count: 1}

	rec := doUpload(t, uc, "a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_IndexUnavailable(t *testing.T) {
	uc := &fakeIngestUsecase{err: entity.ErrIndexUnavailable}

	rec := doUpload(t, uc, "report.pdf")

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "upstream service failure", resp.Message)
}
