package approval

import (
	"encoding/json"
	"strings"

	"github.com/dataroomhq/diligence/model"
)

const (
	defaultReasoning      = "Continuing with analysis task"
	defaultDocumentReason = "Document requested for review"

	reasoningScanDepth = 5
	reasonScanDepth    = 10
	todosScanDepth     = 20

	minReasoningChars = 50
	maxReasoningChars = 500
	maxReasonChars    = 200
	maxRelatedTodos   = 3
)

// Extractor derives reviewer-facing hints from recent conversation history.
// The default implementation is heuristic; alternatives can substitute a
// model-driven one.
type Extractor interface {
	// Reasoning returns the most recent substantive assistant text.
	Reasoning(messages []*model.Message) string
	// DocumentReason returns why a document appears to be requested.
	DocumentReason(messages []*model.Message, docID string) string
	// RelatedTodos returns up to three in-progress task descriptions.
	RelatedTodos(messages []*model.Message) []string
}

type heuristicExtractor struct{}

// NewExtractor returns the default heuristic extractor.
func NewExtractor() Extractor {
	return &heuristicExtractor{}
}

func (e *heuristicExtractor) Reasoning(messages []*model.Message) string {
	for i, scanned := len(messages)-1, 0; i >= 0 && scanned < reasoningScanDepth; i-- {
		message := messages[i]
		if message.Role != model.RoleAssistant {
			continue
		}
		scanned++
		content := strings.TrimSpace(message.Content)
		if len(content) <= minReasoningChars {
			continue
		}
		return truncate(content, maxReasoningChars)
	}
	return defaultReasoning
}

func (e *heuristicExtractor) DocumentReason(messages []*model.Message, docID string) string {
	for i, scanned := len(messages)-1, 0; i >= 0 && scanned < reasonScanDepth; i-- {
		message := messages[i]
		scanned++
		if !strings.Contains(message.Content, docID) {
			continue
		}
		for _, sentence := range splitSentences(message.Content) {
			if strings.Contains(sentence, docID) {
				return truncate(strings.TrimSpace(sentence), maxReasonChars)
			}
		}
	}
	return defaultDocumentReason
}

func (e *heuristicExtractor) RelatedTodos(messages []*model.Message) []string {
	for i, scanned := len(messages)-1, 0; i >= 0 && scanned < todosScanDepth; i-- {
		message := messages[i]
		scanned++
		for _, call := range message.ToolCalls {
			if call.Name != "write_todos" {
				continue
			}
			var input struct {
				Todos []model.Todo `json:"todos"`
			}
			if err := json.Unmarshal(call.Arguments, &input); err != nil {
				return nil
			}
			var ret []string
			for _, todo := range input.Todos {
				if todo.Status != model.TodoInProgress {
					continue
				}
				ret = append(ret, todo.Content)
				if len(ret) == maxRelatedTodos {
					break
				}
			}
			return ret
		}
	}
	return nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
