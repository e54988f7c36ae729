package approval

import (
	"time"
)

// DecisionKind enumerates reviewer decisions.
type DecisionKind string

const (
	DecisionApprove DecisionKind = "approve"
	DecisionEdit    DecisionKind = "edit"
	DecisionReject  DecisionKind = "reject"
)

// Request represents a pending approval for one gated tool call.
type Request struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	ToolName  string                 `json:"tool_name"`
	ToolArgs  map[string]interface{} `json:"tool_args,omitempty"`
	Context   *Context               `json:"context,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
}

// Decision represents a reviewer decision for a request.
type Decision struct {
	RequestID  string                 `json:"request_id"`
	Kind       DecisionKind           `json:"decision"`
	EditedArgs map[string]interface{} `json:"edited_args,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	DecidedAt  time.Time              `json:"decided_at"`
}

// Context is the reviewer-facing packet sent with an approval request. It
// serializes to the approval_request envelope payload.
type Context struct {
	RequestID          string                 `json:"request_id"`
	ToolName           string                 `json:"tool_name"`
	ToolArgs           map[string]interface{} `json:"tool_args,omitempty"`
	AllowedDecisions   []DecisionKind         `json:"allowed_decisions"`
	DocumentHighlights []*DocumentHighlight   `json:"document_highlights,omitempty"`
	PageHighlights     []*PageHighlight       `json:"page_highlights,omitempty"`
	FileHighlights     []*FileHighlight       `json:"file_highlights,omitempty"`
	AgentReasoning     string                 `json:"agent_reasoning,omitempty"`
	RelatedTodos       []string               `json:"related_todos,omitempty"`
	Timestamp          time.Time              `json:"timestamp"`
}

// DocumentHighlight summarises one referenced document for the reviewer.
type DocumentHighlight struct {
	DocID                   string         `json:"doc_id"`
	Reason                  string         `json:"reason"`
	LegallySignificantPages []int          `json:"legally_significant_pages"`
	AllPagesSummary         map[int]string `json:"all_pages_summary"`
}

// PageHighlight points the reviewer at specific pages of one document.
type PageHighlight struct {
	DocID    string `json:"doc_id"`
	PageNums []int  `json:"page_nums"`
	Context  string `json:"context"`
}

// FileHighlight previews a scratch-file operation.
type FileHighlight struct {
	FilePath       string `json:"file_path"`
	Operation      string `json:"operation"`
	ContentPreview string `json:"content_preview"`
}

// Allows reports whether the context permits the given decision kind.
func (c *Context) Allows(kind DecisionKind) bool {
	for _, candidate := range c.AllowedDecisions {
		if candidate == kind {
			return true
		}
	}
	return false
}
