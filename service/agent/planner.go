// Package agent runs the approval-gated tool-call loop. An orchestrator owns
// one session's run: it asks a planner for the next step, executes ungated
// tools directly, and suspends on gated ones until a reviewer decides.
package agent

import (
	"context"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/tool"
)

// Plan is one planner step: either a final answer or tool calls to execute.
type Plan struct {
	Content   string
	ToolCalls []model.ToolCall
}

// Final reports whether the plan terminates the run.
func (p *Plan) Final() bool {
	return len(p.ToolCalls) == 0
}

// Planner produces the next step of an agent conversation given the tools
// available to it.
type Planner interface {
	Next(ctx context.Context, messages []*model.Message, tools []*tool.Definition) (*Plan, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, messages []*model.Message, tools []*tool.Definition) (*Plan, error)

func (f PlannerFunc) Next(ctx context.Context, messages []*model.Message, tools []*tool.Definition) (*Plan, error) {
	return f(ctx, messages, tools)
}
