package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
)

func providerConfig(provider, geminiURL string) *config.Config {
	return &config.Config{
		Settings: config.Settings{
			ModelProvider: config.ModelProviderConfig{Provider: provider},
			VectorDB: map[string]config.VectorDBConfig{
				provider: {IndexName: "test-index", Dimension: 8},
			},
			Embedding: map[string]config.EmbeddingConfig{
				provider: {ModelName: "text-embedding-004"},
			},
			LLM: map[string]config.LLMConfig{
				provider: {ModelName: "gemini-1.5-pro", APIVersion: "2024-06-01"},
			},
		},
		Env: config.EnvConfig{
			GoogleAPIKey:        "google-key",
			GroqAPIKey:          "groq-key",
			AzureOpenAIAPIKey:   "azure-key",
			AzureOpenAIEndpoint: "https://example.openai.azure.com",
			GeminiURL:           geminiURL,
			HTTPClient: config.HTTPClientConfig{
				RequestTimeout:        5 * time.Second,
				ConnTimeout:           time.Second,
				KeepAlive:             time.Second,
				IdleConnTimeout:       time.Second,
				ResponseHeaderTimeout: 5 * time.Second,
			},
		},
	}
}

func TestNewChatModel_Dispatch(t *testing.T) {
	logger := zaptest.NewLogger(t)

	google, err := NewChatModel(providerConfig("google", "http://unused"), logger)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, google)

	azure, err := NewChatModel(providerConfig("azure", "http://unused"), logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, azure)

	groq, err := NewChatModel(providerConfig("groq", "http://unused"), logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, groq)

	_, err = NewChatModel(providerConfig("anthropic", "http://unused"), logger)
	assert.ErrorIs(t, err, entity.ErrUnsupportedProvider)
}

func TestNewEmbeddingModel_GroqFallsBackToGoogle(t *testing.T) {
	logger := zaptest.NewLogger(t)

	m, err := NewEmbeddingModel(providerConfig("groq", "http://unused"), logger)

	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, m)
}

func TestGeminiClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		assert.Equal(t, "google-key", r.Header.Get("x-goog-api-key"))

		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer server.Close()

	c := NewGeminiClient(providerConfig("google", server.URL), zaptest.NewLogger(t))

	vec, err := c.Embed(context.Background(), "some text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestGeminiClient_EmbedBatchCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[{"values":[0.1]}]}`))
	}))
	defer server.Close()

	c := NewGeminiClient(providerConfig("google", server.URL), zaptest.NewLogger(t))

	_, err := c.EmbedBatch(context.Background(), []string{"one", "two"})

	assert.ErrorIs(t, err, entity.ErrEmbedding)
}

func TestGeminiClient_CompleteWithToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)

		var req geminiGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "web_search", req.Tools[0].FunctionDeclarations[0].Name)

		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[
			{"functionCall":{"name":"web_search","args":{"query":"NVDA"}}}
		]}}]}`))
	}))
	defer server.Close()

	c := NewGeminiClient(providerConfig("google", server.URL), zaptest.NewLogger(t))

	reply, err := c.Complete(context.Background(),
		[]entity.ChatMessage{
			{Role: entity.RoleSystem, Content: "You are an assistant."},
			{Role: entity.RoleUser, Content: "How is NVIDIA doing?"},
		},
		[]entity.ToolSpec{
			{Name: "web_search", Description: "search", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
	)

	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "web_search", reply.ToolCalls[0].Name)
	assert.Equal(t, "web_search", reply.ToolCalls[0].ID)
	assert.JSONEq(t, `{"query":"NVDA"}`, string(reply.ToolCalls[0].Arguments))
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	c := NewGeminiClient(providerConfig("google", server.URL), zaptest.NewLogger(t))

	_, err := c.Complete(context.Background(),
		[]entity.ChatMessage{{Role: entity.RoleUser, Content: "hi"}}, nil)

	assert.ErrorIs(t, err, entity.ErrChatCompletion)
}

func TestMockEmbeddingModel_DeterministicAndNormalized(t *testing.T) {
	m := NewMockEmbeddingModel(16, zaptest.NewLogger(t))

	a, err := m.Embed(context.Background(), "stock market analysis")
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), "stock market analysis")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	require.Len(t, a, 16)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 0.001)
}
