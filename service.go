package diligence

import (
	"context"
	"fmt"
	"log"

	"github.com/viant/afs/url"

	"github.com/dataroomhq/diligence/internal/clock"
	"github.com/dataroomhq/diligence/internal/idgen"
	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/policy"
	"github.com/dataroomhq/diligence/service/agent"
	"github.com/dataroomhq/diligence/service/approval"
	approvalmem "github.com/dataroomhq/diligence/service/approval/memory"
	"github.com/dataroomhq/diligence/service/channel"
	channelmem "github.com/dataroomhq/diligence/service/channel/memory"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/dao/fs"
	"github.com/dataroomhq/diligence/service/dao/store"
	"github.com/dataroomhq/diligence/service/ingestion"
	"github.com/dataroomhq/diligence/service/objectstore"
	"github.com/dataroomhq/diligence/service/oracle"
	"github.com/dataroomhq/diligence/service/tool"
	"github.com/dataroomhq/diligence/service/tool/dataroom"
	"github.com/dataroomhq/diligence/service/tool/scratch"
	"github.com/dataroomhq/diligence/service/tool/tasklist"
	"github.com/dataroomhq/diligence/service/tool/web"
)

// Service is the engine facade.
type Service struct {
	config *Config

	documents dao.Service[string, model.Document]
	sessions  dao.Service[string, model.Session]
	files     dao.Service[string, model.AgentFile]

	store     objectstore.Service
	oracle    oracle.Service
	approvals approval.Service
	channels  channel.Registry
	extractor approval.Extractor
	builder   *approval.Builder
	planner   agent.Planner
	pipeline  *ingestion.Service

	ingestionOptions []ingestion.Option
	webOptions       []web.Option
	policy           *policy.Policy
}

func documentKey(d *model.Document) string { return d.ID }
func sessionKey(s *model.Session) string   { return s.ID }
func fileKey(f *model.AgentFile) string    { return f.ID }

// New creates the engine. Without a DataURL all state is in memory; without
// an oracle the ingestion pipeline is unavailable, and without a planner
// sessions cannot run.
func New(options ...Option) *Service {
	ret := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(ret)
	}
	ret.init()
	return ret
}

func (s *Service) init() {
	if s.documents == nil {
		if s.config.DataURL != "" {
			s.documents = fs.New[model.Document](url.Join(s.config.DataURL, "documents"), documentKey)
		} else {
			s.documents = store.NewMemoryStore[string, model.Document](documentKey)
		}
	}
	if s.sessions == nil {
		if s.config.DataURL != "" {
			s.sessions = fs.New[model.Session](url.Join(s.config.DataURL, "sessions"), sessionKey)
		} else {
			s.sessions = store.NewMemoryStore[string, model.Session](sessionKey)
		}
	}
	if s.files == nil {
		if s.config.DataURL != "" {
			s.files = fs.New[model.AgentFile](url.Join(s.config.DataURL, "files"), fileKey)
		} else {
			s.files = store.NewMemoryStore[string, model.AgentFile](fileKey)
		}
	}
	if s.store == nil {
		s.store = objectstore.New(s.config.StoreURL)
	}
	if s.approvals == nil {
		s.approvals = approvalmem.New(approvalmem.WithPendingTTL(s.config.PendingTTL))
	}
	if s.channels == nil {
		s.channels = channelmem.New(s.approvals)
	}
	if s.extractor == nil {
		s.extractor = approval.NewExtractor()
	}
	s.builder = approval.NewBuilder(s.documents, s.extractor)
	if s.oracle != nil && s.pipeline == nil {
		options := append([]ingestion.Option{ingestion.WithConfig(s.config.Ingestion)}, s.ingestionOptions...)
		s.pipeline = ingestion.New(s.documents, s.store, s.oracle, options...)
	}
	if s.policy == nil && s.config.Policy != nil {
		s.policy = policy.FromConfig(s.config.Policy)
	}
}

// Ingest runs the document pipeline for one uploaded file.
func (s *Service) Ingest(ctx context.Context, data []byte, filename string) (*model.Document, error) {
	if s.pipeline == nil {
		return nil, fmt.Errorf("ingestion unavailable: no oracle configured")
	}
	return s.pipeline.Ingest(ctx, data, filename)
}

// NewSession creates a session over the given documents.
func (s *Service) NewSession(ctx context.Context, projectName string, documentIDs []string) (*model.Session, error) {
	now := clock.Now()
	session := &model.Session{
		ID:          idgen.New(),
		ProjectName: projectName,
		DocumentIDs: documentIDs,
		Status:      model.SessionCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RunSession executes the session's agent run synchronously and returns the
// agent's final answer.
func (s *Service) RunSession(ctx context.Context, sessionID, objective string) (string, error) {
	if s.planner == nil {
		return "", fmt.Errorf("cannot run session: no planner configured")
	}
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", fmt.Errorf("session %v not found", sessionID)
	}
	if session.Status.Terminal() {
		return "", fmt.Errorf("session %v is %v and cannot restart", sessionID, session.Status)
	}
	if s.policy != nil {
		ctx = policy.WithPolicy(ctx, s.policy)
	}
	return s.orchestrator(session).Run(ctx, objective)
}

// StartSession launches the agent run fire-and-forget; outcome is observable
// through the session record and the channel.
func (s *Service) StartSession(ctx context.Context, sessionID, objective string) {
	go func() {
		if _, err := s.RunSession(ctx, sessionID, objective); err != nil {
			log.Printf("session %v run ended with error: %v", sessionID, err)
		}
	}()
}

// orchestrator assembles the per-session tool registries and the main agent.
func (s *Service) orchestrator(session *model.Session) *agent.Orchestrator {
	documentTools := dataroom.New(s.documents).Definitions()
	webTools := web.New(s.webOptions...).Definitions()
	scratchTools := scratch.New(session.ID, s.files).Definitions()
	taskTools := tasklist.New(func(todos []model.Todo) {
		if err := channel.SendTodos(context.Background(), s.channels, session.ID, todos); err != nil {
			log.Printf("failed to send todos for session %v: %v", session.ID, err)
		}
	}).Definitions()

	analysisRegistry := tool.NewRegistry(append(documentTools, webTools...)...)
	reportRegistry := tool.NewRegistry(scratchTools...)
	delegator := agent.NewDelegator(session, s.sessions, s.planner, s.approvals, s.builder,
		s.channels, analysisRegistry, reportRegistry, s.config.Agent)

	main := append(documentTools, webTools...)
	main = append(main, scratchTools...)
	main = append(main, taskTools...)
	main = append(main, delegator.Definitions()...)
	mainRegistry := tool.NewRegistry(main...)

	return agent.New(session, s.sessions, s.planner, mainRegistry, s.approvals, s.builder, s.channels,
		agent.WithBudget(s.config.Agent.MainBudget))
}

// Documents exposes the document DAO.
func (s *Service) Documents() dao.Service[string, model.Document] { return s.documents }

// Sessions exposes the session DAO.
func (s *Service) Sessions() dao.Service[string, model.Session] { return s.sessions }

// Files exposes the scratch-file DAO.
func (s *Service) Files() dao.Service[string, model.AgentFile] { return s.files }

// Approvals exposes the approval service.
func (s *Service) Approvals() approval.Service { return s.approvals }

// Channels exposes the session channel registry.
func (s *Service) Channels() channel.Registry { return s.channels }

// Ingestion exposes the document pipeline, nil when no oracle is configured.
func (s *Service) Ingestion() *ingestion.Service { return s.pipeline }
