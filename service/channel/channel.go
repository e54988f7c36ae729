// Package channel carries real-time traffic between a session's agent run
// and its reviewer: status updates, approval requests and task-list changes
// flow out, decisions flow back in.
package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/approval"
	"github.com/dataroomhq/diligence/service/messaging"
)

// Envelope message types.
const (
	TypeAgentStatus     = "agent_status"
	TypeApprovalRequest = "approval_request"
	TypeTodosUpdate     = "todos_update"
	TypeWorkflowEvent   = "workflow_event"

	// inbound
	TypeApprovalDecision = "approval_decision"
)

// Agent status values reported over the channel.
const (
	StatusConnected = "connected"
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Envelope is the transport-neutral message wrapper.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// AgentStatus is the agent_status payload.
type AgentStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// TodosUpdate is the todos_update payload.
type TodosUpdate struct {
	Todos []model.Todo `json:"todos"`
}

// WorkflowEvent is the workflow_event payload.
type WorkflowEvent struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrSessionClosed signals traffic for a session with no registered channel.
type ErrSessionClosed struct {
	SessionID string
}

func (e *ErrSessionClosed) Error() string {
	return fmt.Sprintf("session channel %v is closed", e.SessionID)
}

// Registry tracks the open channel per session. Outward sends to an
// unregistered session are dropped; inbound decisions for one are errors.
type Registry interface {
	// Register opens the session's channel and returns the queue its
	// outward envelopes are published to.
	Register(ctx context.Context, sessionID string) (messaging.Queue[Envelope], error)

	// Unregister closes the session's channel.
	Unregister(ctx context.Context, sessionID string) error

	// Send publishes an outward envelope; a no-op when unregistered.
	Send(ctx context.Context, sessionID string, envelope *Envelope) error

	// HandleDecision routes an inbound decision to the approval layer.
	// Stale decisions are logged and ignored; decisions for unregistered
	// sessions return *ErrSessionClosed.
	HandleDecision(ctx context.Context, sessionID string, decision *approval.Decision) error
}

// SendStatus publishes an agent_status envelope.
func SendStatus(ctx context.Context, registry Registry, sessionID, status, details string) error {
	return registry.Send(ctx, sessionID, &Envelope{
		Type: TypeAgentStatus,
		Data: &AgentStatus{Status: status, Details: details},
	})
}

// SendApprovalRequest publishes an approval_request envelope.
func SendApprovalRequest(ctx context.Context, registry Registry, sessionID string, approvalContext *approval.Context) error {
	return registry.Send(ctx, sessionID, &Envelope{
		Type: TypeApprovalRequest,
		Data: approvalContext,
	})
}

// SendTodos publishes a todos_update envelope.
func SendTodos(ctx context.Context, registry Registry, sessionID string, todos []model.Todo) error {
	return registry.Send(ctx, sessionID, &Envelope{
		Type: TypeTodosUpdate,
		Data: &TodosUpdate{Todos: todos},
	})
}

// SendEvent publishes a workflow_event envelope.
func SendEvent(ctx context.Context, registry Registry, sessionID, eventType string, data interface{}) error {
	return registry.Send(ctx, sessionID, &Envelope{
		Type: TypeWorkflowEvent,
		Data: &WorkflowEvent{EventType: eventType, Data: data},
	})
}

// DecodeDecision parses an inbound approval_decision envelope.
func DecodeDecision(raw []byte) (*approval.Decision, error) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if envelope.Type != TypeApprovalDecision {
		return nil, fmt.Errorf("unexpected inbound envelope type: %v", envelope.Type)
	}
	decision := &approval.Decision{}
	if err := json.Unmarshal(envelope.Data, decision); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}
	return decision, nil
}
