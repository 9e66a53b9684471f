package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
)

// Workflow state names, for logging.
type state string

const (
	stateReasoning state = "reasoning"
	stateToolCall  state = "tool_call"
	stateFinal     state = "final"
	stateTimedOut  state = "timed_out"
)

const systemPromptHeader = `You are a stock market assistant. Answer questions about stocks, companies and financial markets.
Use the provided document context when it is relevant. Use tools for current prices, news and reported financials.
Be concise and factual. If you do not know, say so.`

// Workflow drives one question through the agent loop: retrieve context,
// then alternate model turns and tool invocations until the model
// produces a final answer or the step budget runs out.
type Workflow struct {
	model     ChatModel
	retriever *Retriever
	tools     *ToolSet
	maxSteps  int
	logger    *zap.Logger
}

func NewWorkflow(cfg *config.Config, model ChatModel, retriever *Retriever, tools *ToolSet, logger *zap.Logger) *Workflow {
	return &Workflow{
		model:     model,
		retriever: retriever,
		tools:     tools,
		maxSteps:  cfg.Agent.MaxSteps,
		logger:    logger,
	}
}

// Run answers a question. Each model turn consumes one step; tool
// results do not. Exhausting the budget returns ErrWorkflowTimeout.
func (w *Workflow) Run(ctx context.Context, question string) (*entity.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, entity.ErrEmptyQuestion
	}

	chunks, err := w.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	messages := []entity.ChatMessage{
		{Role: entity.RoleSystem, Content: buildSystemPrompt(chunks)},
		{Role: entity.RoleUser, Content: question},
	}

	for step := 1; step <= w.maxSteps; step++ {
		ctxzap.Debug(ctx, "model turn",
			zap.String("state", string(stateReasoning)),
			zap.Int("step", step),
		)

		reply, err := w.model.Complete(ctx, messages, w.tools.Specs())
		if err != nil {
			return nil, err
		}

		if len(reply.ToolCalls) == 0 {
			ctxzap.Info(ctx, "workflow finished",
				zap.String("state", string(stateFinal)),
				zap.Int("steps", step),
			)
			return &entity.Answer{
				Text:    reply.Content,
				Sources: chunkSources(chunks),
			}, nil
		}

		ctxzap.Debug(ctx, "model requested tools",
			zap.String("state", string(stateToolCall)),
			zap.Int("step", step),
			zap.Int("calls", len(reply.ToolCalls)),
		)

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			result := w.tools.Invoke(ctx, call.Name, call.Arguments)
			messages = append(messages, entity.ChatMessage{
				Role:       entity.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	ctxzap.Warn(ctx, "workflow exhausted step budget",
		zap.String("state", string(stateTimedOut)),
		zap.Int("max_steps", w.maxSteps),
	)

	return nil, fmt.Errorf("%w: after %d steps", entity.ErrWorkflowTimeout, w.maxSteps)
}

// buildSystemPrompt injects the retrieved chunks into the system prompt
// so the model sees document context before its first turn.
func buildSystemPrompt(chunks []entity.ScoredChunk) string {
	if len(chunks) == 0 {
		return systemPromptHeader
	}

	var sb strings.Builder
	sb.WriteString(systemPromptHeader)
	sb.WriteString("\n\nContext from uploaded documents:\n")
	for i, c := range chunks {
		fmt.Fprintf(&sb, "\n[%d] (source: %s)\n%s\n", i+1, c.Source, c.Text)
	}
	return sb.String()
}

// chunkSources lists the distinct source filenames in retrieval order.
func chunkSources(chunks []entity.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var sources []string
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}
