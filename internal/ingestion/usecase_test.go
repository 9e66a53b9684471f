package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/pinecone"
)

type fakeEmbedder struct {
	dimension int
	calls     int
	err       error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, f.dimension)
		vectors[i][0] = 1
	}
	return vectors, nil
}

func TestIngest_PDFEndToEnd(t *testing.T) {
	logger := zaptest.NewLogger(t)
	embedder := &fakeEmbedder{dimension: 8}
	index := pinecone.NewMockConnector(logger)
	uc := NewUsecase(embedder, index, logger)

	content := pdfFixture(t, "Quarterly revenue grew twelve percent year over year.")

	count, err := uc.Ingest(context.Background(), []entity.FileData{
		{Filename: "report.pdf", Content: content},
	})

	require.NoError(t, err)
	assert.Greater(t, count, 0)
	assert.Equal(t, count, index.Len())
}

func TestIngest_NoFiles(t *testing.T) {
	logger := zaptest.NewLogger(t)
	uc := NewUsecase(&fakeEmbedder{dimension: 8}, pinecone.NewMockConnector(logger), logger)

	_, err := uc.Ingest(context.Background(), nil)

	assert.True(t, errors.Is(err, entity.ErrNoFiles))
}

func TestIngest_UnsupportedFileLeavesIndexUntouched(t *testing.T) {
	logger := zaptest.NewLogger(t)
	index := pinecone.NewMockConnector(logger)
	uc := NewUsecase(&fakeEmbedder{dimension: 8}, index, logger)

	_, err := uc.Ingest(context.Background(), []entity.FileData{
		{Filename: "notes.txt", Content: []byte("plain text")},
	})

	assert.True(t, errors.Is(err, entity.ErrUnsupportedFileType))
	assert.Equal(t, 0, index.Len())
}

func TestIngest_EmbedderFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)
	index := pinecone.NewMockConnector(logger)
	embedErr := errors.New("quota exceeded")
	uc := NewUsecase(&fakeEmbedder{dimension: 8, err: embedErr}, index, logger)

	content := pdfFixture(t, "Some document content for the pipeline.")

	_, err := uc.Ingest(context.Background(), []entity.FileData{
		{Filename: "doc.pdf", Content: content},
	})

	assert.ErrorIs(t, err, embedErr)
	assert.Equal(t, 0, index.Len())
}
