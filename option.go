package diligence

import (
	"github.com/tmc/langchaingo/llms"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/policy"
	"github.com/dataroomhq/diligence/service/agent"
	agentchain "github.com/dataroomhq/diligence/service/agent/langchain"
	"github.com/dataroomhq/diligence/service/approval"
	"github.com/dataroomhq/diligence/service/channel"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/ingestion"
	"github.com/dataroomhq/diligence/service/objectstore"
	"github.com/dataroomhq/diligence/service/oracle"
	oraclechain "github.com/dataroomhq/diligence/service/oracle/langchain"
	"github.com/dataroomhq/diligence/service/tool/web"
	"github.com/dataroomhq/diligence/tracing"
)

// Option customises the engine.
type Option func(s *Service)

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithModel wires one LLM as both the planner and the ingestion oracle.
func WithModel(llm llms.Model) Option {
	return func(s *Service) {
		if s.planner == nil {
			s.planner = agentchain.New(llm, agentchain.DefaultConfig())
		}
		if s.oracle == nil {
			s.oracle = oraclechain.New(llm, s.config.Oracle)
		}
	}
}

// WithPlanner sets the agent planner.
func WithPlanner(planner agent.Planner) Option {
	return func(s *Service) { s.planner = planner }
}

// WithOracle sets the classifier/summarizer client.
func WithOracle(service oracle.Service) Option {
	return func(s *Service) { s.oracle = service }
}

// WithApprovalService sets the approval service.
func WithApprovalService(service approval.Service) Option {
	return func(s *Service) { s.approvals = service }
}

// WithChannelRegistry sets the session channel registry.
func WithChannelRegistry(registry channel.Registry) Option {
	return func(s *Service) { s.channels = registry }
}

// WithExtractor overrides the approval-context extraction heuristics.
func WithExtractor(extractor approval.Extractor) Option {
	return func(s *Service) { s.extractor = extractor }
}

// WithObjectStore sets the object store.
func WithObjectStore(store objectstore.Service) Option {
	return func(s *Service) { s.store = store }
}

// WithDocumentDAO sets the document DAO.
func WithDocumentDAO(service dao.Service[string, model.Document]) Option {
	return func(s *Service) { s.documents = service }
}

// WithSessionDAO sets the session DAO.
func WithSessionDAO(service dao.Service[string, model.Session]) Option {
	return func(s *Service) { s.sessions = service }
}

// WithFileDAO sets the scratch-file DAO.
func WithFileDAO(service dao.Service[string, model.AgentFile]) Option {
	return func(s *Service) { s.files = service }
}

// WithIngestionOptions passes extra options to the document pipeline, for
// example a custom splitter.
func WithIngestionOptions(options ...ingestion.Option) Option {
	return func(s *Service) { s.ingestionOptions = append(s.ingestionOptions, options...) }
}

// WithWebOptions passes extra options to the web tool set, for example a
// search backend.
func WithWebOptions(options ...web.Option) Option {
	return func(s *Service) { s.webOptions = append(s.webOptions, options...) }
}

// WithPolicy attaches a runtime policy to every session run.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the file. Safe to
// call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Jaeger, Zipkin). The first initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
