package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/policy"
	"github.com/dataroomhq/diligence/service/approval"
	amem "github.com/dataroomhq/diligence/service/approval/memory"
	"github.com/dataroomhq/diligence/service/channel"
	cmem "github.com/dataroomhq/diligence/service/channel/memory"
	"github.com/dataroomhq/diligence/service/dao/store"
	"github.com/dataroomhq/diligence/service/messaging"
	"github.com/dataroomhq/diligence/service/tool"
)

type fetchInput struct {
	DocIDs []string `json:"doc_ids"`
}

type fixture struct {
	session   *model.Session
	sessions  *store.MemoryStore[string, model.Session]
	approvals approval.Service
	channels  channel.Registry
	builder   *approval.Builder
	queue     messaging.Queue[channel.Envelope]
	executed  []map[string]interface{}
}

func sessionKey(s *model.Session) string        { return s.ID }
func documentKeyTest(d *model.Document) string  { return d.ID }

func newFixture(t *testing.T) *fixture {
	ret := &fixture{
		session:   &model.Session{ID: "session-1", ProjectName: "acme", Status: model.SessionCreated},
		sessions:  store.NewMemoryStore[string, model.Session](sessionKey),
		approvals: amem.New(),
	}
	ret.channels = cmem.New(ret.approvals)
	documents := store.NewMemoryStore[string, model.Document](documentKeyTest)
	err := documents.Save(context.Background(), &model.Document{
		ID:       "abc12345",
		Filename: "spa.pdf",
		Summary:  "Share purchase agreement",
		Pages: []*model.Page{
			{DocumentID: "abc12345", PageNum: 1, Summary: "Recitals"},
			{DocumentID: "abc12345", PageNum: 2, Summary: "Indemnities", Significant: true},
		},
		PageCount: 2,
	})
	require.NoError(t, err)
	ret.builder = approval.NewBuilder(documents, nil)
	queue, err := ret.channels.Register(context.Background(), ret.session.ID)
	require.NoError(t, err)
	ret.queue = queue
	return ret
}

// gatedRegistry returns a registry with one gated tool recording its args.
func (f *fixture) gatedRegistry() *tool.Registry {
	return tool.NewRegistry(&tool.Definition{
		Name:             "get_documents",
		Input:            reflect.TypeOf(&fetchInput{}),
		RequiresApproval: true,
		Handler: func(_ context.Context, in interface{}) (string, error) {
			input := in.(*fetchInput)
			f.executed = append(f.executed, map[string]interface{}{"doc_ids": input.DocIDs})
			return fmt.Sprintf("fetched %v", input.DocIDs), nil
		},
	})
}

// scriptPlanner calls the gated tool once, then finishes.
func scriptPlanner(calls *atomic.Int32) Planner {
	return PlannerFunc(func(_ context.Context, messages []*model.Message, _ []*tool.Definition) (*Plan, error) {
		if calls.Add(1) == 1 {
			args, _ := json.Marshal(map[string]interface{}{"doc_ids": []string{"abc12345"}})
			return &Plan{ToolCalls: []model.ToolCall{{ID: "call-1", Name: "get_documents", Arguments: args}}}, nil
		}
		return &Plan{Content: "analysis complete"}, nil
	})
}

// drainUntil consumes envelopes until one of the wanted type arrives.
func drainUntil(t *testing.T, queue messaging.Queue[channel.Envelope], envelopeType string) *channel.Envelope {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		envelope := message.T()
		require.NoError(t, message.Ack())
		if envelope.Type == envelopeType {
			return envelope
		}
	}
}

func TestRunCompletesWithoutTools(t *testing.T) {
	f := newFixture(t)
	planner := PlannerFunc(func(context.Context, []*model.Message, []*tool.Definition) (*Plan, error) {
		return &Plan{Content: "done"}, nil
	})
	orchestrator := New(f.session, f.sessions, planner, tool.NewRegistry(), f.approvals, f.builder, f.channels)

	result, err := orchestrator.Run(context.Background(), "review the data room")
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, model.SessionCompleted, f.session.Status)
	assert.NotNil(t, f.session.CompletedAt)
}

func TestGatedCallApprovedEndToEnd(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	orchestrator := New(f.session, f.sessions, scriptPlanner(&calls), f.gatedRegistry(), f.approvals, f.builder, f.channels)

	type outcome struct {
		result string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := orchestrator.Run(context.Background(), "review the data room")
		done <- outcome{result, err}
	}()

	envelope := drainUntil(t, f.queue, channel.TypeApprovalRequest)
	approvalContext := envelope.Data.(*approval.Context)
	assert.Equal(t, "get_documents", approvalContext.ToolName)
	assert.True(t, approvalContext.Allows(approval.DecisionEdit))
	require.Len(t, approvalContext.DocumentHighlights, 1)
	assert.Equal(t, "abc12345", approvalContext.DocumentHighlights[0].DocID)
	assert.Equal(t, []int{2}, approvalContext.DocumentHighlights[0].LegallySignificantPages)

	// exactly one pending approval per session
	_, err := f.approvals.Request(context.Background(), &approval.Request{ID: "other", SessionID: f.session.ID})
	assert.ErrorIs(t, err, approval.ErrPendingExists)

	err = f.channels.HandleDecision(context.Background(), f.session.ID, &approval.Decision{
		RequestID: approvalContext.RequestID,
		Kind:      approval.DecisionApprove,
	})
	require.NoError(t, err)

	run := <-done
	require.NoError(t, run.err)
	assert.Equal(t, "analysis complete", run.result)
	require.Len(t, f.executed, 1)
	assert.Equal(t, []string{"abc12345"}, f.executed[0]["doc_ids"])
	assert.Equal(t, model.SessionCompleted, f.session.Status)
}

func TestEditedArgsAreExecuted(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	orchestrator := New(f.session, f.sessions, scriptPlanner(&calls), f.gatedRegistry(), f.approvals, f.builder, f.channels)

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.Run(context.Background(), "review the data room")
		done <- err
	}()

	envelope := drainUntil(t, f.queue, channel.TypeApprovalRequest)
	approvalContext := envelope.Data.(*approval.Context)
	err := f.channels.HandleDecision(context.Background(), f.session.ID, &approval.Decision{
		RequestID:  approvalContext.RequestID,
		Kind:       approval.DecisionEdit,
		EditedArgs: map[string]interface{}{"doc_ids": []string{"abc12345", "def67890"}},
	})
	require.NoError(t, err)

	require.NoError(t, <-done)
	require.Len(t, f.executed, 1)
	assert.Equal(t, []string{"abc12345", "def67890"}, f.executed[0]["doc_ids"])
}

func TestRejectionInjectsNoticeWithoutExecuting(t *testing.T) {
	f := newFixture(t)
	var sawNotice atomic.Bool
	var calls atomic.Int32
	planner := PlannerFunc(func(_ context.Context, messages []*model.Message, _ []*tool.Definition) (*Plan, error) {
		if calls.Add(1) == 1 {
			args, _ := json.Marshal(map[string]interface{}{"doc_ids": []string{"abc12345"}})
			return &Plan{ToolCalls: []model.ToolCall{{ID: "call-1", Name: "get_documents", Arguments: args}}}, nil
		}
		last := messages[len(messages)-1]
		if last.Role == model.RoleTool && last.ToolName == "get_documents" {
			sawNotice.Store(last.Content != "" && last.Content != "fetched [abc12345]")
		}
		return &Plan{Content: "switched approach"}, nil
	})
	orchestrator := New(f.session, f.sessions, planner, f.gatedRegistry(), f.approvals, f.builder, f.channels)

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.Run(context.Background(), "review the data room")
		done <- err
	}()

	envelope := drainUntil(t, f.queue, channel.TypeApprovalRequest)
	approvalContext := envelope.Data.(*approval.Context)

	// a stale decision must not resume the run
	err := f.channels.HandleDecision(context.Background(), f.session.ID, &approval.Decision{
		RequestID: "bogus",
		Kind:      approval.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionPaused, f.session.Status)

	err = f.channels.HandleDecision(context.Background(), f.session.ID, &approval.Decision{
		RequestID: approvalContext.RequestID,
		Kind:      approval.DecisionReject,
		Reason:    "out of scope",
	})
	require.NoError(t, err)

	require.NoError(t, <-done)
	assert.Empty(t, f.executed, "rejected call must not execute")
	assert.True(t, sawNotice.Load(), "agent must see the rejection notice")
	assert.Equal(t, model.SessionCompleted, f.session.Status)
}

func TestBudgetExhaustionFailsSession(t *testing.T) {
	f := newFixture(t)
	registry := tool.NewRegistry(&tool.Definition{
		Name: "spin",
		Handler: func(context.Context, interface{}) (string, error) {
			return "again", nil
		},
	})
	planner := PlannerFunc(func(context.Context, []*model.Message, []*tool.Definition) (*Plan, error) {
		return &Plan{ToolCalls: []model.ToolCall{{ID: "call", Name: "spin"}}}, nil
	})
	orchestrator := New(f.session, f.sessions, planner, registry, f.approvals, f.builder, f.channels,
		WithAgent(MainAgent, 3, mainSystemPrompt))

	_, err := orchestrator.Run(context.Background(), "never finish")
	var budgetErr *BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 3, budgetErr.Budget)
	assert.Equal(t, model.SessionFailed, f.session.Status)
	assert.Contains(t, f.session.ErrorMessage, "iteration budget")
}

func TestPolicyAutoSkipsApproval(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	orchestrator := New(f.session, f.sessions, scriptPlanner(&calls), f.gatedRegistry(), f.approvals, f.builder, f.channels)

	ctx := policy.WithPolicy(context.Background(), &policy.Policy{Mode: policy.ModeAuto})
	result, err := orchestrator.Run(ctx, "review the data room")
	require.NoError(t, err)
	assert.Equal(t, "analysis complete", result)
	require.Len(t, f.executed, 1)
}

func TestPolicyDenyRejectsWithoutExecuting(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	orchestrator := New(f.session, f.sessions, scriptPlanner(&calls), f.gatedRegistry(), f.approvals, f.builder, f.channels)

	ctx := policy.WithPolicy(context.Background(), &policy.Policy{Mode: policy.ModeDeny})
	_, err := orchestrator.Run(ctx, "review the data room")
	require.NoError(t, err)
	assert.Empty(t, f.executed)
	assert.Equal(t, model.SessionCompleted, f.session.Status)
}
