package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient serves the two OpenAI-compatible providers: Azure OpenAI
// and Groq. Groq only exposes chat completions; its embedding calls are
// routed to the Gemini client by the factory instead.
type OpenAIClient struct {
	client     openai.Client
	chatModel  string
	embedModel string
	logger     *zap.Logger
}

func newAzureClient(cfg *config.Config, logger *zap.Logger) *OpenAIClient {
	llm := cfg.ActiveLLM()

	client := openai.NewClient(
		azure.WithEndpoint(cfg.Env.AzureOpenAIEndpoint, llm.APIVersion),
		azure.WithAPIKey(cfg.Env.AzureOpenAIAPIKey),
	)

	return &OpenAIClient{
		client:     client,
		chatModel:  llm.ModelName,
		embedModel: cfg.ActiveEmbedding().ModelName,
		logger:     logger,
	}
}

func newGroqClient(cfg *config.Config, logger *zap.Logger) *OpenAIClient {
	client := openai.NewClient(
		option.WithAPIKey(cfg.Env.GroqAPIKey),
		option.WithBaseURL(groqBaseURL),
	)

	return &OpenAIClient{
		client:    client,
		chatModel: cfg.ActiveLLM().ModelName,
		logger:    logger,
	}
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings: %v", entity.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			entity.ErrEmbedding, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		values := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			values[i] = float32(v)
		}
		vectors[item.Index] = values
	}

	return vectors, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolSpec) (*entity.ChatMessage, error) {
	ctxzap.Debug(ctx, "openai chat completion",
		zap.String("model", c.chatModel),
		zap.Int("messages", len(messages)),
		zap.Int("tools", len(tools)),
	)

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.chatModel),
		Messages: toOpenAIMessages(messages),
	}

	for _, t := range tools {
		var schema shared.FunctionParameters
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("tool %s parameter schema: %w", t.Name, err)
			}
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  schema,
			},
		})
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", entity.ErrChatCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", entity.ErrChatCompletion)
	}

	msg := resp.Choices[0].Message

	result := &entity.ChatMessage{
		Role:    entity.RoleAssistant,
		Content: msg.Content,
	}

	for _, call := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}

	return result, nil
}

func toOpenAIMessages(messages []entity.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case entity.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case entity.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case entity.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}

	return out
}
