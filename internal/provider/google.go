package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/common"
	pkghttp "github.com/stockchat/agent-backend/pkg/http"
)

// GeminiClient talks to the Google Generative Language API. It implements
// both EmbeddingModel and ChatModel.
type GeminiClient struct {
	connector  *pkghttp.Connector
	chatModel  string
	embedModel string
	logger     *zap.Logger
}

func NewGeminiClient(cfg *config.Config, logger *zap.Logger) *GeminiClient {
	connector := common.NewBaseConnector(cfg.Env.GeminiURL, cfg.Env.HTTPClient, logger,
		pkghttp.WithAPIKeyHeader("x-goog-api-key", cfg.Env.GoogleAPIKey),
	)

	return &GeminiClient{
		connector:  connector,
		chatModel:  cfg.ActiveLLM().ModelName,
		embedModel: cfg.ActiveEmbedding().ModelName,
		logger:     logger,
	}
}

// Gemini wire types.

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// modelPath prefixes bare model names the way the API expects.
func modelPath(name string) string {
	if strings.HasPrefix(name, "models/") {
		return name
	}
	return "models/" + name
}

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	endpoint := fmt.Sprintf("/%s:embedContent", modelPath(c.embedModel))

	req := geminiEmbedRequest{
		Model:   modelPath(c.embedModel),
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	var resp geminiEmbedResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: gemini embed: %v", entity.ErrEmbedding, err)
	}

	return resp.Embedding.Values, nil
}

func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("/%s:batchEmbedContents", modelPath(c.embedModel))

	req := geminiBatchEmbedRequest{Requests: make([]geminiEmbedRequest, 0, len(texts))}
	for _, text := range texts {
		req.Requests = append(req.Requests, geminiEmbedRequest{
			Model:   modelPath(c.embedModel),
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		})
	}

	var resp geminiBatchEmbedResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: gemini batch embed: %v", entity.ErrEmbedding, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d texts",
			entity.ErrEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		vectors = append(vectors, e.Values)
	}

	return vectors, nil
}

func (c *GeminiClient) Complete(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolSpec) (*entity.ChatMessage, error) {
	ctxzap.Debug(ctx, "gemini chat completion",
		zap.String("model", c.chatModel),
		zap.Int("messages", len(messages)),
		zap.Int("tools", len(tools)),
	)

	req := geminiGenerateRequest{}

	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		case entity.RoleUser:
			req.Contents = append(req.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		case entity.RoleAssistant:
			content := geminiContent{Role: "model"}
			if msg.Content != "" {
				content.Parts = append(content.Parts, geminiPart{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				content.Parts = append(content.Parts, geminiPart{
					FunctionCall: &geminiFunctionCall{Name: call.Name, Args: call.Arguments},
				})
			}
			req.Contents = append(req.Contents, content)
		case entity.RoleTool:
			// Gemini expects function results as user-role parts.
			req.Contents = append(req.Contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{
					FunctionResponse: &geminiFunctionResponse{
						Name:     msg.ToolName,
						Response: map[string]any{"content": msg.Content},
					},
				}},
			})
		}
	}

	if len(tools) > 0 {
		decls := make([]geminiFunctionDecl, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, geminiFunctionDecl{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		req.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	endpoint := fmt.Sprintf("/%s:generateContent", modelPath(c.chatModel))

	var resp geminiGenerateResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: gemini generate: %v", entity.ErrChatCompletion, err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no candidates", entity.ErrChatCompletion)
	}

	result := &entity.ChatMessage{Role: entity.RoleAssistant}
	var texts []string

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			// Gemini has no tool-call IDs: the function name doubles as
			// the correlation ID.
			result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
				ID:        part.FunctionCall.Name,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
			continue
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	result.Content = strings.Join(texts, "\n")

	return result, nil
}
