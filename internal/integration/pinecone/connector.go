package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/common"
	pkghttp "github.com/stockchat/agent-backend/pkg/http"
)

// Connector is the Pinecone wire client. The control plane
// (api.pinecone.io) lists and creates indexes and resolves the
// per-index data-plane host; upserts and queries go to that host.
type Connector struct {
	indexName string
	dimension int
	connector *pkghttp.Connector
	retryOpts []retry.Option
	logger    *zap.Logger

	controlURL string

	// Data-plane host, resolved lazily. Only a successful resolution is
	// cached; once set the host never changes.
	hostMu sync.Mutex
	host   string
}

func NewConnector(cfg *config.Config, logger *zap.Logger) *Connector {
	vdb := cfg.ActiveVectorDB()

	return &Connector{
		indexName:  vdb.IndexName,
		dimension:  vdb.Dimension,
		controlURL: cfg.Env.PineconeControlURL,
		host:       cfg.Env.PineconeIndexHost,
		retryOpts:  cfg.Env.Retry.ToRetryOptions(),
		logger:     logger,
		connector: common.NewBaseConnector(cfg.Env.PineconeControlURL, cfg.Env.HTTPClient, logger,
			pkghttp.WithAPIKeyHeader("Api-Key", cfg.Env.PineconeAPIKey),
		),
	}
}

// Control-plane wire types.

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Host      string `json:"host"`
}

type listIndexesResponse struct {
	Indexes []indexDescription `json:"indexes"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// Data-plane wire types.

type upsertVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors []upsertVector `json:"vectors"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float32           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// EnsureIndex makes sure the configured index exists, creating it with
// the configured dimension when missing, and resolves the data-plane
// host. Called lazily before the first upsert or query. A failed
// resolution is not cached: the next call tries the control plane
// again, so a transient outage does not wedge the connector.
func (c *Connector) EnsureIndex(ctx context.Context) error {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()

	if c.host != "" {
		// Resolved earlier, or pinned via environment.
		return nil
	}

	host, err := c.resolveHost(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrIndexUnavailable, err)
	}

	c.host = host
	return nil
}

func (c *Connector) resolveHost(ctx context.Context) (string, error) {
	var list listIndexesResponse
	if err := c.connector.DoRequest(ctx, http.MethodGet, "/indexes", nil, &list); err != nil {
		return "", fmt.Errorf("list indexes: %w", err)
	}

	for _, idx := range list.Indexes {
		if idx.Name == c.indexName {
			return idx.Host, nil
		}
	}

	ctxzap.Info(ctx, "creating vector index",
		zap.String("index", c.indexName),
		zap.Int("dimension", c.dimension),
	)

	req := createIndexRequest{
		Name:      c.indexName,
		Dimension: c.dimension,
		Metric:    "cosine",
		Spec: indexSpec{
			Serverless: serverlessSpec{Cloud: "aws", Region: "us-east-1"},
		},
	}

	var created indexDescription
	if err := c.connector.DoRequest(ctx, http.MethodPost, "/indexes", req, &created); err != nil {
		return "", fmt.Errorf("create index %s: %w", c.indexName, err)
	}

	return created.Host, nil
}

func (c *Connector) dataURL(path string) string {
	host := c.host
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + path
}

// Upsert writes vectors into the configured index and returns the count
// the index acknowledged.
func (c *Connector) Upsert(ctx context.Context, vectors []entity.Vector) (int, error) {
	if err := c.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	req := upsertRequest{Vectors: make([]upsertVector, 0, len(vectors))}
	for _, v := range vectors {
		req.Vectors = append(req.Vectors, upsertVector{
			ID:     v.ID,
			Values: v.Values,
			Metadata: map[string]string{
				"text":   v.Text,
				"source": v.Source,
			},
		})
	}

	var resp upsertResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, "", req, &resp,
			pkghttp.WithURL(c.dataURL("/vectors/upsert")))
	}, append(c.retryOpts, retry.Context(ctx))...)
	if err != nil {
		ctxzap.Error(ctx, "vector upsert failed", zap.Error(err))
		return 0, fmt.Errorf("%w: upsert: %v", entity.ErrIndexUnavailable, err)
	}

	ctxzap.Info(ctx, "vectors upserted",
		zap.String("index", c.indexName),
		zap.Int("count", resp.UpsertedCount),
	)

	return resp.UpsertedCount, nil
}

// Query runs a nearest-neighbor search and returns matches in index
// order with their similarity scores and stored metadata.
func (c *Connector) Query(ctx context.Context, vector []float32, topK int) ([]entity.ScoredChunk, error) {
	if err := c.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	req := queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	var resp queryResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, "", req, &resp,
			pkghttp.WithURL(c.dataURL("/query")))
	}, append(c.retryOpts, retry.Context(ctx))...)
	if err != nil {
		ctxzap.Error(ctx, "vector query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: query: %v", entity.ErrIndexUnavailable, err)
	}

	chunks := make([]entity.ScoredChunk, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		chunks = append(chunks, entity.ScoredChunk{
			Chunk: entity.Chunk{
				ID:     match.ID,
				Text:   match.Metadata["text"],
				Source: match.Metadata["source"],
			},
			Score: match.Score,
		})
	}

	return chunks, nil
}
