package diligence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/agent"
	"github.com/dataroomhq/diligence/service/ingestion"
	"github.com/dataroomhq/diligence/service/oracle"
	"github.com/dataroomhq/diligence/service/tool"
)

type stubOracle struct{}

func (o *stubOracle) SummarizePage(_ context.Context, _ []byte, text string, pageNum int) (string, error) {
	return "summary of page", nil
}

func (o *stubOracle) AnalyzeDocument(_ context.Context, pageSummaries []string, _ int) (*oracle.Analysis, error) {
	return &oracle.Analysis{Summary: "stub document", SignificantPages: []int{1}}, nil
}

type stubSplitter struct{}

func (s *stubSplitter) Split(data []byte, _ string) ([][]byte, []string, error) {
	return [][]byte{[]byte("page-1")}, []string{"page one text"}, nil
}

func newTestService(planner agent.Planner) *Service {
	return New(
		WithOracle(&stubOracle{}),
		WithIngestionOptions(ingestion.WithSplitter(&stubSplitter{})),
		WithPlanner(planner),
	)
}

func finishPlanner(content string) agent.Planner {
	return agent.PlannerFunc(func(context.Context, []*model.Message, []*tool.Definition) (*agent.Plan, error) {
		return &agent.Plan{Content: content}, nil
	})
}

func TestEndToEndSessionLifecycle(t *testing.T) {
	service := newTestService(finishPlanner("all reviewed"))
	ctx := context.Background()

	doc, err := service.Ingest(ctx, []byte("%PDF-1.4 fake"), "spa.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, "stub document", doc.Summary)

	session, err := service.NewSession(ctx, "acme", []string{doc.ID})
	require.NoError(t, err)
	assert.Equal(t, model.SessionCreated, session.Status)

	result, err := service.RunSession(ctx, session.ID, "review the data room")
	require.NoError(t, err)
	assert.Equal(t, "all reviewed", result)

	stored, err := service.Sessions().Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, stored.Status)

	// terminal sessions never restart
	_, err = service.RunSession(ctx, session.ID, "again")
	assert.Error(t, err)
}

func TestRunSessionRequiresPlanner(t *testing.T) {
	service := New(WithOracle(&stubOracle{}))
	_, err := service.RunSession(context.Background(), "missing", "objective")
	assert.Error(t, err)
}

func TestIngestRequiresOracle(t *testing.T) {
	service := New(WithPlanner(finishPlanner("done")))
	_, err := service.Ingest(context.Background(), []byte("data"), "a.pdf")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	config.StoreURL = ""
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Agent.MainBudget = 0
	assert.Error(t, config.Validate())
}
