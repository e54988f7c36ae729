package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dataroomhq/diligence/internal/clock"
	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/policy"
	"github.com/dataroomhq/diligence/service/approval"
	"github.com/dataroomhq/diligence/service/channel"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/tool"
	"github.com/dataroomhq/diligence/tracing"
)

// Config bounds the iteration budgets of the agent hierarchy.
type Config struct {
	MainBudget     int `yaml:"mainBudget" json:"mainBudget"`
	AnalysisBudget int `yaml:"analysisBudget" json:"analysisBudget"`
	ReportBudget   int `yaml:"reportBudget" json:"reportBudget"`
}

// DefaultConfig returns the standard budgets.
func DefaultConfig() Config {
	return Config{
		MainBudget:     50,
		AnalysisBudget: 30,
		ReportBudget:   20,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MainBudget <= 0 || c.AnalysisBudget <= 0 || c.ReportBudget <= 0 {
		return errors.New("iteration budgets must be positive")
	}
	return nil
}

// Orchestrator drives one agent's tool-call loop for a session. Gated tool
// calls suspend the loop until a reviewer decision is delivered through the
// approval service; at most one approval is pending per session at any time.
type Orchestrator struct {
	name         string
	budget       int
	root         bool
	systemPrompt string

	session   *model.Session
	sessions  dao.Service[string, model.Session]
	planner   Planner
	registry  *tool.Registry
	approvals approval.Service
	builder   *approval.Builder
	channels  channel.Registry
}

// Option customises an orchestrator.
type Option func(*Orchestrator)

// WithAgent sets the agent name, iteration budget and system prompt.
func WithAgent(name string, budget int, systemPrompt string) Option {
	return func(o *Orchestrator) {
		o.name = name
		o.budget = budget
		o.systemPrompt = systemPrompt
	}
}

// WithBudget overrides the iteration budget only.
func WithBudget(budget int) Option {
	return func(o *Orchestrator) { o.budget = budget }
}

// AsSubagent marks the orchestrator as nested: it reports paused/running
// transitions but leaves the session's terminal status to its parent.
func AsSubagent() Option {
	return func(o *Orchestrator) { o.root = false }
}

// New creates an orchestrator for the given session.
func New(session *model.Session, sessions dao.Service[string, model.Session], planner Planner,
	registry *tool.Registry, approvals approval.Service, builder *approval.Builder,
	channels channel.Registry, options ...Option) *Orchestrator {
	ret := &Orchestrator{
		name:         MainAgent,
		budget:       DefaultConfig().MainBudget,
		root:         true,
		systemPrompt: mainSystemPrompt,
		session:      session,
		sessions:     sessions,
		planner:      planner,
		registry:     registry,
		approvals:    approvals,
		builder:      builder,
		channels:     channels,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Run executes the tool-call loop until a final answer, a failure or budget
// exhaustion. It returns the agent's final content.
func (o *Orchestrator) Run(ctx context.Context, objective string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "agent.run", "INTERNAL")
	span.WithAttributes(map[string]string{"agent": o.name, "session": o.session.ID})
	result, err := o.run(ctx, objective)
	tracing.EndSpan(span, err)
	return result, err
}

func (o *Orchestrator) run(ctx context.Context, objective string) (string, error) {
	if err := o.transition(ctx, model.SessionRunning, ""); err != nil {
		return "", err
	}
	messages := []*model.Message{
		{Role: model.RoleSystem, Content: o.systemPrompt},
		{Role: model.RoleUser, Content: objective},
	}

	for i := 0; i < o.budget; i++ {
		plan, err := o.planner.Next(ctx, messages, o.registry.Definitions())
		if err != nil {
			return "", o.fail(ctx, err)
		}
		messages = append(messages, &model.Message{
			Role:      model.RoleAssistant,
			Content:   plan.Content,
			ToolCalls: plan.ToolCalls,
		})
		if plan.Final() {
			o.complete(ctx)
			return plan.Content, nil
		}
		for _, call := range plan.ToolCalls {
			result, err := o.execute(ctx, messages, call)
			if err != nil {
				return "", o.fail(ctx, err)
			}
			resultMessage := model.NewToolResult(call, result)
			messages = append(messages, &resultMessage)
		}
	}
	return "", o.fail(ctx, &BudgetExceededError{Agent: o.name, Budget: o.budget})
}

// execute runs a single tool call, routing gated ones through approval.
func (o *Orchestrator) execute(ctx context.Context, messages []*model.Message, call model.ToolCall) (string, error) {
	args := call.Args()
	pol := policy.FromContext(ctx)
	if pol != nil && (!pol.IsAllowed(call.Name) || pol.Mode == policy.ModeDeny) {
		return rejectionNotice(call.Name, "blocked by policy"), nil
	}
	gated := o.registry.RequiresApproval(call.Name)
	if gated && pol != nil && pol.Mode == policy.ModeAuto {
		gated = false
	}
	if !gated {
		return o.invoke(ctx, call.Name, args)
	}
	if pol != nil && pol.Mode == policy.ModeAsk && pol.Ask != nil {
		if !pol.Ask(ctx, call.Name, args, pol) {
			return rejectionNotice(call.Name, "rejected"), nil
		}
		return o.invoke(ctx, call.Name, args)
	}
	return o.awaitApproval(ctx, messages, call, args)
}

// awaitApproval pauses the run on the session's single pending slot and
// resumes once the matching decision arrives.
func (o *Orchestrator) awaitApproval(ctx context.Context, messages []*model.Message, call model.ToolCall, args map[string]interface{}) (string, error) {
	approvalContext, err := o.builder.Build(ctx, call.Name, args, messages)
	if err != nil {
		return "", err
	}
	request := &approval.Request{
		ID:        approvalContext.RequestID,
		SessionID: o.session.ID,
		ToolName:  call.Name,
		ToolArgs:  args,
		Context:   approvalContext,
		CreatedAt: approvalContext.Timestamp,
	}
	decisions, err := o.approvals.Request(ctx, request)
	if err != nil {
		return "", err
	}
	if err = o.transition(ctx, model.SessionPaused, "awaiting approval for "+call.Name); err != nil {
		return "", err
	}
	if err = channel.SendApprovalRequest(ctx, o.channels, o.session.ID, approvalContext); err != nil {
		log.Printf("failed to send approval request for session %v: %v", o.session.ID, err)
	}

	var decision *approval.Decision
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case decision = <-decisions:
	}
	if err = o.transition(ctx, model.SessionRunning, ""); err != nil {
		return "", err
	}
	switch decision.Kind {
	case approval.DecisionApprove:
		return o.invoke(ctx, call.Name, args)
	case approval.DecisionEdit:
		edited := decision.EditedArgs
		if edited == nil {
			edited = args
		}
		return o.invoke(ctx, call.Name, edited)
	default:
		return rejectionNotice(call.Name, decision.Reason), nil
	}
}

// invoke executes the tool and folds recoverable failures into the tool
// result so the agent can adapt; infrastructure failures propagate.
func (o *Orchestrator) invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	result, err := o.registry.Execute(ctx, name, args)
	if err != nil {
		var budget *BudgetExceededError
		if errors.As(err, &budget) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		log.Printf("tool %v failed for session %v: %v", name, o.session.ID, err)
		return fmt.Sprintf("Error executing %v: %v", name, err), nil
	}
	if err = channel.SendEvent(ctx, o.channels, o.session.ID, "tool_executed",
		map[string]interface{}{"agent": o.name, "tool": name}); err != nil {
		log.Printf("failed to send workflow event for session %v: %v", o.session.ID, err)
	}
	return result, nil
}

func (o *Orchestrator) transition(ctx context.Context, status model.SessionStatus, details string) error {
	o.session.Status = status
	o.session.UpdatedAt = clock.Now()
	if err := o.sessions.Save(ctx, o.session); err != nil {
		return err
	}
	return channel.SendStatus(ctx, o.channels, o.session.ID, string(status), details)
}

func (o *Orchestrator) complete(ctx context.Context) {
	if !o.root {
		return
	}
	now := clock.Now()
	o.session.CompletedAt = &now
	if err := o.transition(ctx, model.SessionCompleted, ""); err != nil {
		log.Printf("failed to mark session %v completed: %v", o.session.ID, err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, cause error) error {
	if !o.root {
		return cause
	}
	o.session.ErrorMessage = cause.Error()
	if err := o.transition(ctx, model.SessionFailed, cause.Error()); err != nil {
		log.Printf("failed to mark session %v failed: %v", o.session.ID, err)
	}
	return cause
}

func rejectionNotice(toolName, reason string) string {
	if reason == "" {
		reason = "rejected by the reviewer"
	}
	return fmt.Sprintf("The %v call was not executed: %v. Do not retry it; choose an alternative approach.", toolName, reason)
}
