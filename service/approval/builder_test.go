package approval

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/dao/store"
)

func documentKey(d *model.Document) string { return d.ID }

func testDocuments(t *testing.T) *store.MemoryStore[string, model.Document] {
	documents := store.NewMemoryStore[string, model.Document](documentKey)
	err := documents.Save(context.Background(), &model.Document{
		ID:       "abc12345",
		Filename: "share_purchase_agreement.pdf",
		Summary:  "Share purchase agreement",
		Pages: []*model.Page{
			{DocumentID: "abc12345", PageNum: 1, Summary: "Parties and recitals", Significant: false},
			{DocumentID: "abc12345", PageNum: 2, Summary: "Indemnification clauses", Significant: true},
		},
		PageCount: 2,
	})
	require.NoError(t, err)
	return documents
}

func todosCall(t *testing.T, todos []model.Todo) model.ToolCall {
	args, err := json.Marshal(map[string]interface{}{"todos": todos})
	require.NoError(t, err)
	return model.ToolCall{ID: "call-1", Name: "write_todos", Arguments: args}
}

func TestBuildDocumentContext(t *testing.T) {
	builder := NewBuilder(testDocuments(t), nil)
	messages := []*model.Message{
		{Role: model.RoleAssistant, Content: "I need to review document abc12345 because it contains the indemnification terms. Then I will summarise the findings in a memo for the client team."},
	}

	result, err := builder.Build(context.Background(), "get_documents",
		map[string]interface{}{"doc_ids": []interface{}{"abc12345", "missing99"}}, messages)
	require.NoError(t, err)

	assert.Equal(t, "get_documents", result.ToolName)
	assert.NotEmpty(t, result.RequestID)
	assert.ElementsMatch(t, []DecisionKind{DecisionApprove, DecisionEdit, DecisionReject}, result.AllowedDecisions)
	require.Len(t, result.DocumentHighlights, 2)

	known := result.DocumentHighlights[0]
	assert.Equal(t, "abc12345", known.DocID)
	assert.Equal(t, []int{2}, known.LegallySignificantPages)
	assert.Equal(t, "Indemnification clauses", known.AllPagesSummary[2])
	assert.Contains(t, known.Reason, "abc12345")

	// unknown documents still get a highlight with the default reason
	assert.Equal(t, "Document requested for review", result.DocumentHighlights[1].Reason)
}

func TestBuildPageContext(t *testing.T) {
	builder := NewBuilder(testDocuments(t), nil)
	messages := []*model.Message{
		{Role: model.RoleAssistant, Content: "short"},
		{Role: model.RoleAssistant, Content: "The indemnification section spans pages two and three, I should read the full text before drafting the risk summary."},
	}

	result, err := builder.Build(context.Background(), "get_page_text",
		map[string]interface{}{"doc_id": "abc12345", "page_nums": []interface{}{3.0, 2.0}}, messages)
	require.NoError(t, err)

	require.Len(t, result.PageHighlights, 1)
	highlight := result.PageHighlights[0]
	assert.Equal(t, "abc12345", highlight.DocID)
	assert.Equal(t, []int{2, 3}, highlight.PageNums)
	assert.Contains(t, highlight.Context, "indemnification")
}

func TestBuildFileContext(t *testing.T) {
	builder := NewBuilder(testDocuments(t), nil)
	content := strings.Repeat("x", 250)

	result, err := builder.Build(context.Background(), "write_file",
		map[string]interface{}{"file_path": "notes/risks.md", "content": content}, nil)
	require.NoError(t, err)

	require.Len(t, result.FileHighlights, 1)
	highlight := result.FileHighlights[0]
	assert.Equal(t, "notes/risks.md", highlight.FilePath)
	assert.Equal(t, "write", highlight.Operation)
	assert.Equal(t, strings.Repeat("x", 200)+"...", highlight.ContentPreview)

	result, err = builder.Build(context.Background(), "edit_file",
		map[string]interface{}{"file_path": "notes/risks.md", "old_string": "a", "new_string": "b"}, nil)
	require.NoError(t, err)
	require.Len(t, result.FileHighlights, 1)
	assert.Equal(t, "edit", result.FileHighlights[0].Operation)
	assert.Equal(t, "b", result.FileHighlights[0].ContentPreview)
}

func TestBuildUnknownToolReducesDecisions(t *testing.T) {
	builder := NewBuilder(testDocuments(t), nil)

	result, err := builder.Build(context.Background(), "mystery_tool", nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []DecisionKind{DecisionApprove, DecisionReject}, result.AllowedDecisions)
	assert.False(t, result.Allows(DecisionEdit))
}

func TestExtractReasoning(t *testing.T) {
	extractor := NewExtractor()

	assert.Equal(t, defaultReasoning, extractor.Reasoning(nil))
	assert.Equal(t, defaultReasoning, extractor.Reasoning([]*model.Message{
		{Role: model.RoleAssistant, Content: "ok"},
		{Role: model.RoleUser, Content: strings.Repeat("user text is never reasoning ", 5)},
	}))

	long := strings.Repeat("a", 600)
	got := extractor.Reasoning([]*model.Message{{Role: model.RoleAssistant, Content: long}})
	assert.Len(t, got, 500)
}

func TestExtractRelatedTodos(t *testing.T) {
	extractor := NewExtractor()
	messages := []*model.Message{
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{todosCall(t, []model.Todo{
			{Content: "stale entry", Status: model.TodoInProgress},
		})}},
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{todosCall(t, []model.Todo{
			{Content: "review SPA", Status: model.TodoInProgress},
			{Content: "done already", Status: model.TodoCompleted},
			{Content: "second task", Status: model.TodoInProgress},
			{Content: "third task", Status: model.TodoInProgress},
			{Content: "fourth task", Status: model.TodoInProgress},
		})}},
	}

	todos := extractor.RelatedTodos(messages)
	assert.Equal(t, []string{"review SPA", "second task", "third task"}, todos)
}
