package agent

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/approval"
	"github.com/dataroomhq/diligence/service/channel"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/tool"
)

// AnalyzeInput delegates a document deep-dive to the analysis subagent.
type AnalyzeInput struct {
	DocIDs       []string `json:"doc_ids"`
	Instructions string   `json:"instructions"`
}

// ReportInput delegates drafting to the report subagent.
type ReportInput struct {
	Instructions string `json:"instructions"`
}

// Delegator builds the delegation tools. Each delegation runs a nested
// orchestrator over the same session: the parent blocks on the full nested
// run, including any approvals the subagent triggers.
type Delegator struct {
	session   *model.Session
	sessions  dao.Service[string, model.Session]
	planner   Planner
	approvals approval.Service
	builder   *approval.Builder
	channels  channel.Registry
	config    Config

	analysisTools *tool.Registry
	reportTools   *tool.Registry

	reportRuns atomic.Int32
}

// NewDelegator creates the delegation tool factory. analysisTools should be
// limited to document/web read tools, reportTools to scratch-file tools.
func NewDelegator(session *model.Session, sessions dao.Service[string, model.Session], planner Planner,
	approvals approval.Service, builder *approval.Builder, channels channel.Registry,
	analysisTools, reportTools *tool.Registry, config Config) *Delegator {
	return &Delegator{
		session:       session,
		sessions:      sessions,
		planner:       planner,
		approvals:     approvals,
		builder:       builder,
		channels:      channels,
		config:        config,
		analysisTools: analysisTools,
		reportTools:   reportTools,
	}
}

// Definitions returns the delegation tool definitions.
func (d *Delegator) Definitions() []*tool.Definition {
	return []*tool.Definition{
		{
			Name:             "analyze_documents",
			Description:      "Delegate an in-depth analysis of specific documents to the analysis subagent.",
			Input:            reflect.TypeOf(&AnalyzeInput{}),
			RequiresApproval: true,
			Handler:          d.analyze,
		},
		{
			Name:             "create_report",
			Description:      "Delegate drafting of the final report to the report subagent. Call once, when analysis is complete.",
			Input:            reflect.TypeOf(&ReportInput{}),
			RequiresApproval: true,
			Handler:          d.report,
		},
	}
}

func (d *Delegator) analyze(ctx context.Context, in interface{}) (string, error) {
	input := in.(*AnalyzeInput)
	objective := input.Instructions
	if len(input.DocIDs) > 0 {
		objective = fmt.Sprintf("%s\n\nDocuments to analyze: %s", objective, strings.Join(input.DocIDs, ", "))
	}
	nested := d.spawn(d.analysisTools, WithAgent(AnalysisAgent, d.config.AnalysisBudget, analysisSystemPrompt))
	return nested.Run(ctx, objective)
}

func (d *Delegator) report(ctx context.Context, in interface{}) (string, error) {
	input := in.(*ReportInput)
	if d.reportRuns.Add(1) > 1 {
		log.Printf("session %v invoked create_report more than once", d.session.ID)
	}
	nested := d.spawn(d.reportTools, WithAgent(ReportAgent, d.config.ReportBudget, reportSystemPrompt))
	return nested.Run(ctx, input.Instructions)
}

func (d *Delegator) spawn(registry *tool.Registry, options ...Option) *Orchestrator {
	options = append(options, AsSubagent())
	return New(d.session, d.sessions, d.planner, registry, d.approvals, d.builder, d.channels, options...)
}
