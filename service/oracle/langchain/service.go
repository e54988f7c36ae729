// Package langchain implements the oracle service on top of a langchaingo
// chat model, so any vendor supported by langchaingo (OpenAI, Anthropic,
// Ollama, ...) can serve as the classifier/summarizer.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"

	"github.com/dataroomhq/diligence/service/oracle"
)

const pagePromptTemplate = `Analyze this legal document page (page %d).

Extracted text from the page:
%s

Provide a concise summary (2-3 sentences) covering:
- Main topic or purpose of this page
- Key terms, obligations, or provisions
- Any notable legal clauses or conditions

Summary:`

const analysisPromptTemplate = `You are analyzing a legal document with %d pages. Below are summaries of each page.

Page Summaries:
%s

Provide:

1. DOCUMENT SUMMARY (3-5 sentences): a high-level summary of the entire document, its purpose, and key points.

2. LEGALLY SIGNIFICANT PAGES (comma-separated page numbers): pages containing key obligations, liability or indemnification clauses, termination or renewal provisions, intellectual property rights, financial obligations, regulatory requirements, dispute resolution mechanisms, warranties, or material definitions.

Format your response as:

SUMMARY:
[document summary]

SIGNIFICANT_PAGES:
[comma-separated page numbers, e.g. 1,3,5,7]`

// Config controls the model invocation.
type Config struct {
	MaxPageTokens     int     `json:"maxPageTokens" yaml:"maxPageTokens"`
	MaxAnalysisTokens int     `json:"maxAnalysisTokens" yaml:"maxAnalysisTokens"`
	MaxPageTextChars  int     `json:"maxPageTextChars" yaml:"maxPageTextChars"`
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
}

// DefaultConfig returns the default oracle configuration.
func DefaultConfig() Config {
	return Config{
		MaxPageTokens:     500,
		MaxAnalysisTokens: 1000,
		MaxPageTextChars:  2000,
		RequestsPerSecond: 2,
	}
}

// Service implements oracle.Service over a langchaingo model.
type Service struct {
	model   llms.Model
	config  Config
	limiter *rate.Limiter
}

// New creates an oracle backed by the supplied model.
func New(model llms.Model, config Config) *Service {
	if config.MaxPageTokens == 0 {
		config = DefaultConfig()
	}
	return &Service{
		model:   model,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

var _ oracle.Service = (*Service)(nil)

// SummarizePage asks the model for a short page summary, attaching the
// rendered page so visual-only content (stamps, signatures, tables) is
// considered alongside the extracted text.
func (s *Service) SummarizePage(ctx context.Context, image []byte, text string, pageNum int) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &oracle.Error{Op: "summarizePage", Err: err}
	}
	if len(text) > s.config.MaxPageTextChars {
		text = text[:s.config.MaxPageTextChars]
	}
	parts := []llms.ContentPart{
		llms.TextPart(fmt.Sprintf(pagePromptTemplate, pageNum, text)),
	}
	if len(image) > 0 {
		parts = append(parts, llms.BinaryPart("application/pdf", image))
	}
	content := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}
	response, err := s.model.GenerateContent(ctx, content, llms.WithMaxTokens(s.config.MaxPageTokens))
	if err != nil {
		return "", &oracle.Error{Op: "summarizePage", Err: err}
	}
	if len(response.Choices) == 0 {
		return "", &oracle.Error{Op: "summarizePage", Err: fmt.Errorf("empty response")}
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}

// AnalyzeDocument combines ordered page summaries into a document judgment.
// The raw response is parsed defensively by oracle.ParseAnalysis.
func (s *Service) AnalyzeDocument(ctx context.Context, pageSummaries []string, totalPages int) (*oracle.Analysis, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &oracle.Error{Op: "analyzeDocument", Err: err}
	}
	var combined strings.Builder
	for i, summary := range pageSummaries {
		fmt.Fprintf(&combined, "Page %d: %s\n\n", i+1, summary)
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf(analysisPromptTemplate, totalPages, combined.String())),
	}
	response, err := s.model.GenerateContent(ctx, content, llms.WithMaxTokens(s.config.MaxAnalysisTokens))
	if err != nil {
		return nil, &oracle.Error{Op: "analyzeDocument", Err: err}
	}
	if len(response.Choices) == 0 {
		return nil, &oracle.Error{Op: "analyzeDocument", Err: fmt.Errorf("empty response")}
	}
	return oracle.ParseAnalysis(response.Choices[0].Content), nil
}
