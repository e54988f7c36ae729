package model

import "time"

// SessionStatus enumerates the lifecycle states of a diligence session.
type SessionStatus string

const (
	SessionCreated   SessionStatus = "created"
	SessionRunning   SessionStatus = "running"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Terminal reports whether the status is final. Terminal sessions never
// restart themselves.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// Session represents one due-diligence run over a set of documents. A session
// owns exactly one live agent run at a time, together with its approval
// history and scratch files.
type Session struct {
	ID           string        `json:"id"`
	ProjectName  string        `json:"projectName"`
	DocumentIDs  []string      `json:"documentIds"`
	Status       SessionStatus `json:"status"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// AgentFile is a scratch artifact written by an agent during a run, scoped to
// its session. Writing one is gated; the record itself is not.
type AgentFile struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
