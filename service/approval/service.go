package approval

import (
	"context"
	"errors"
)

var (
	// ErrPendingExists signals a second gated call while one awaits review.
	ErrPendingExists = errors.New("approval already pending for session")
	// ErrStaleDecision signals a decision for an unknown or resolved request.
	ErrStaleDecision = errors.New("decision references unknown or resolved request")
	// ErrNoPending signals a decision for a session with nothing pending.
	ErrNoPending = errors.New("no pending approval for session")
)

// Service manages the single pending-approval slot per session.
type Service interface {
	// Request registers a pending request and returns the channel on which
	// exactly one decision will be delivered. ErrPendingExists when the
	// session already has a pending request.
	Request(ctx context.Context, request *Request) (<-chan *Decision, error)

	// Pending returns the session's pending request, or nil.
	Pending(ctx context.Context, sessionID string) (*Request, error)

	// Decide resolves the pending request. The decision's RequestID must
	// match the pending one (ErrStaleDecision otherwise); callers log and
	// ignore stale decisions rather than failing the session.
	Decide(ctx context.Context, sessionID string, decision *Decision) error
}
