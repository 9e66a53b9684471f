package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/integration/pinecone"
	"github.com/stockchat/agent-backend/internal/provider"
)

// scriptedChatModel replays a fixed sequence of replies, repeating the
// last one once the script runs out.
type scriptedChatModel struct {
	replies []entity.ChatMessage
	calls   int
}

func (m *scriptedChatModel) Complete(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolSpec) (*entity.ChatMessage, error) {
	idx := m.calls
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	m.calls++
	reply := m.replies[idx]
	return &reply, nil
}

func newTestWorkflow(t *testing.T, model ChatModel, maxSteps int, tools ...Tool) (*Workflow, *pinecone.MockConnector, provider.EmbeddingModel) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	embedder := provider.NewMockEmbeddingModel(32, logger)
	index := pinecone.NewMockConnector(logger)

	cfg := testConfig(3, 0, maxSteps)
	retriever := NewRetriever(cfg, embedder, index, logger)
	set := NewToolSet(logger, tools...)

	return NewWorkflow(cfg, model, retriever, set, logger), index, embedder
}

func TestWorkflow_DirectAnswer(t *testing.T) {
	model := &scriptedChatModel{replies: []entity.ChatMessage{
		{Role: entity.RoleAssistant, Content: "The market closed higher today."},
	}}
	w, _, _ := newTestWorkflow(t, model, 6)

	answer, err := w.Run(context.Background(), "How did the market do?")

	require.NoError(t, err)
	assert.Equal(t, "The market closed higher today.", answer.Text)
	assert.Equal(t, 1, model.calls)
}

func TestWorkflow_ToolCallThenAnswer(t *testing.T) {
	tool := &countingTool{name: "web_search", result: "NVDA is up 3%"}
	model := &scriptedChatModel{replies: []entity.ChatMessage{
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call-1", Name: "web_search", Arguments: json.RawMessage(`{"query":"NVDA"}`)},
			},
		},
		{Role: entity.RoleAssistant, Content: "NVIDIA is up three percent."},
	}}
	w, _, _ := newTestWorkflow(t, model, 6, tool)

	answer, err := w.Run(context.Background(), "How is NVIDIA doing?")

	require.NoError(t, err)
	assert.Equal(t, "NVIDIA is up three percent.", answer.Text)
	assert.Equal(t, 1, tool.calls)
	assert.Equal(t, 2, model.calls)
}

func TestWorkflow_StepBudgetExhausted(t *testing.T) {
	tool := &countingTool{name: "web_search", result: "some result"}
	// The model never stops asking for tools.
	model := &scriptedChatModel{replies: []entity.ChatMessage{
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call-1", Name: "web_search", Arguments: json.RawMessage(`{"query":"again"}`)},
			},
		},
	}}
	w, _, _ := newTestWorkflow(t, model, 3, tool)

	_, err := w.Run(context.Background(), "Keep searching forever")

	assert.ErrorIs(t, err, entity.ErrWorkflowTimeout)
	assert.Equal(t, 3, model.calls)
}

func TestWorkflow_EmptyQuestion(t *testing.T) {
	model := &scriptedChatModel{replies: []entity.ChatMessage{
		{Role: entity.RoleAssistant, Content: "unused"},
	}}
	w, _, _ := newTestWorkflow(t, model, 6)

	_, err := w.Run(context.Background(), "   ")

	assert.ErrorIs(t, err, entity.ErrEmptyQuestion)
}

func TestWorkflow_SourcesFromRetrievedChunks(t *testing.T) {
	model := &scriptedChatModel{replies: []entity.ChatMessage{
		{Role: entity.RoleAssistant, Content: "Revenue grew twelve percent."},
	}}
	w, index, embedder := newTestWorkflow(t, model, 6)

	seedIndex(t, embedder, index, map[string]string{
		"report.pdf": "Quarterly revenue grew twelve percent.",
	})

	answer, err := w.Run(context.Background(), "Quarterly revenue grew twelve percent.")

	require.NoError(t, err)
	assert.Contains(t, answer.Sources, "report.pdf")
}

func TestBuildSystemPrompt_WithAndWithoutContext(t *testing.T) {
	bare := buildSystemPrompt(nil)
	assert.NotContains(t, bare, "Context from uploaded documents")

	withContext := buildSystemPrompt([]entity.ScoredChunk{
		{Chunk: entity.Chunk{Text: "Revenue grew.", Source: "report.pdf"}, Score: 0.9},
	})
	assert.Contains(t, withContext, "Context from uploaded documents")
	assert.Contains(t, withContext, "report.pdf")
	assert.Contains(t, withContext, "Revenue grew.")
}
