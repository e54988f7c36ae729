package approval

import (
	"context"
	"fmt"
	"sort"

	"github.com/dataroomhq/diligence/internal/clock"
	"github.com/dataroomhq/diligence/internal/idgen"
	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/dao"
)

const maxPreviewChars = 200

var fullDecisionSet = []DecisionKind{DecisionApprove, DecisionEdit, DecisionReject}
var reducedDecisionSet = []DecisionKind{DecisionApprove, DecisionReject}

// Builder assembles reviewer context packets for gated tool calls. Dispatch
// is by tool name; unknown tools get the generic shape with edit disallowed.
type Builder struct {
	documents dao.Service[string, model.Document]
	extractor Extractor
}

// NewBuilder creates a context builder.
func NewBuilder(documents dao.Service[string, model.Document], extractor Extractor) *Builder {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &Builder{documents: documents, extractor: extractor}
}

// Build constructs the approval context for one tool call.
func (b *Builder) Build(ctx context.Context, toolName string, args map[string]interface{}, messages []*model.Message) (*Context, error) {
	ret := &Context{
		RequestID:        idgen.New(),
		ToolName:         toolName,
		ToolArgs:         args,
		AllowedDecisions: fullDecisionSet,
		AgentReasoning:   b.extractor.Reasoning(messages),
		RelatedTodos:     b.extractor.RelatedTodos(messages),
		Timestamp:        clock.Now(),
	}
	switch toolName {
	case "get_documents", "analyze_documents", "create_report":
		b.buildDocuments(ctx, ret, args, messages)
	case "get_page_text", "get_page_image":
		b.buildPages(ret, args)
	case "write_file", "edit_file":
		b.buildFile(ret, toolName, args)
	case "web_search", "web_fetch":
		// generic shape; reasoning and todos carry the context
	default:
		ret.AllowedDecisions = reducedDecisionSet
	}
	return ret, nil
}

func (b *Builder) buildDocuments(ctx context.Context, result *Context, args map[string]interface{}, messages []*model.Message) {
	for _, docID := range stringSlice(args["doc_ids"]) {
		highlight := &DocumentHighlight{
			DocID:  docID,
			Reason: b.extractor.DocumentReason(messages, docID),
		}
		if doc, _ := b.documents.Load(ctx, docID); doc != nil {
			highlight.LegallySignificantPages = doc.SignificantPages()
			highlight.AllPagesSummary = doc.PageSummaries()
		}
		result.DocumentHighlights = append(result.DocumentHighlights, highlight)
	}
}

func (b *Builder) buildPages(result *Context, args map[string]interface{}) {
	docID, _ := args["doc_id"].(string)
	if docID == "" {
		return
	}
	pageNums := intSlice(args["page_nums"])
	sort.Ints(pageNums)
	result.PageHighlights = append(result.PageHighlights, &PageHighlight{
		DocID:    docID,
		PageNums: pageNums,
		Context:  result.AgentReasoning,
	})
}

func (b *Builder) buildFile(result *Context, toolName string, args map[string]interface{}) {
	path, _ := args["file_path"].(string)
	operation := "write"
	content, _ := args["content"].(string)
	if toolName == "edit_file" {
		operation = "edit"
		content, _ = args["new_string"].(string)
	}
	preview := content
	if len(preview) > maxPreviewChars {
		preview = preview[:maxPreviewChars] + "..."
	}
	result.FileHighlights = append(result.FileHighlights, &FileHighlight{
		FilePath:       path,
		Operation:      operation,
		ContentPreview: preview,
	})
}

func stringSlice(value interface{}) []string {
	switch actual := value.(type) {
	case []string:
		return actual
	case []interface{}:
		var ret []string
		for _, item := range actual {
			ret = append(ret, fmt.Sprintf("%v", item))
		}
		return ret
	case string:
		if actual == "" {
			return nil
		}
		return []string{actual}
	}
	return nil
}

func intSlice(value interface{}) []int {
	var ret []int
	switch actual := value.(type) {
	case []int:
		return append(ret, actual...)
	case []interface{}:
		for _, item := range actual {
			switch num := item.(type) {
			case int:
				ret = append(ret, num)
			case float64:
				ret = append(ret, int(num))
			}
		}
	}
	return ret
}
