package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataroomhq/diligence/service/approval"
)

func newRequest(id, sessionID string) *approval.Request {
	return &approval.Request{
		ID:        id,
		SessionID: sessionID,
		ToolName:  "get_documents",
		ToolArgs:  map[string]interface{}{"doc_ids": []string{"abc12345"}},
	}
}

func TestSinglePendingPerSession(t *testing.T) {
	service := New()
	ctx := context.Background()

	decisions, err := service.Request(ctx, newRequest("req-1", "session-1"))
	require.NoError(t, err)
	require.NotNil(t, decisions)

	_, err = service.Request(ctx, newRequest("req-2", "session-1"))
	assert.ErrorIs(t, err, approval.ErrPendingExists)

	// other sessions are unaffected
	_, err = service.Request(ctx, newRequest("req-3", "session-2"))
	assert.NoError(t, err)

	pending, err := service.Pending(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", pending.ID)
}

func TestDecideDeliversDecision(t *testing.T) {
	service := New()
	ctx := context.Background()

	decisions, err := service.Request(ctx, newRequest("req-1", "session-1"))
	require.NoError(t, err)

	err = service.Decide(ctx, "session-1", &approval.Decision{
		RequestID: "req-1",
		Kind:      approval.DecisionEdit,
		EditedArgs: map[string]interface{}{
			"doc_ids": []string{"abc12345", "def67890"},
		},
	})
	require.NoError(t, err)

	decision := <-decisions
	require.NotNil(t, decision)
	assert.Equal(t, approval.DecisionEdit, decision.Kind)
	assert.Contains(t, decision.EditedArgs, "doc_ids")
	assert.False(t, decision.DecidedAt.IsZero())

	// slot is freed, next gated call can register
	pending, err := service.Pending(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, pending)
	_, err = service.Request(ctx, newRequest("req-2", "session-1"))
	assert.NoError(t, err)
}

func TestStaleDecisionIgnored(t *testing.T) {
	service := New()
	ctx := context.Background()

	_, err := service.Request(ctx, newRequest("req-1", "session-1"))
	require.NoError(t, err)

	err = service.Decide(ctx, "session-1", &approval.Decision{RequestID: "req-0", Kind: approval.DecisionApprove})
	assert.ErrorIs(t, err, approval.ErrStaleDecision)

	err = service.Decide(ctx, "session-9", &approval.Decision{RequestID: "req-1", Kind: approval.DecisionApprove})
	assert.ErrorIs(t, err, approval.ErrNoPending)

	// the pending slot survives the stale decision
	pending, err := service.Pending(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "req-1", pending.ID)
}

func TestPendingTTLAutoRejects(t *testing.T) {
	service := New(WithPendingTTL(20 * time.Millisecond))
	ctx := context.Background()

	decisions, err := service.Request(ctx, newRequest("req-1", "session-1"))
	require.NoError(t, err)

	select {
	case decision := <-decisions:
		require.NotNil(t, decision)
		assert.Equal(t, approval.DecisionReject, decision.Kind)
		assert.Equal(t, "approval timed out", decision.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected auto-reject decision")
	}
}
