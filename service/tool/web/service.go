// Package web provides outbound research tools. Both are gated: they leave
// the data room.
package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dataroomhq/diligence/service/tool"
)

// SearchInput carries a web search query.
type SearchInput struct {
	Query string `json:"query"`
}

// FetchInput selects a URL to fetch.
type FetchInput struct {
	URL string `json:"url"`
}

// Searcher runs a web search; implementations wrap a search API.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Service provides the web tool set.
type Service struct {
	client    *http.Client
	searcher  Searcher
	maxResult int
}

// Option customises the web tool service.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client used by web_fetch.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// WithSearcher attaches a search backend; without one web_search reports
// that no search API is configured.
func WithSearcher(searcher Searcher) Option {
	return func(s *Service) { s.searcher = searcher }
}

// New creates the web tool service.
func New(options ...Option) *Service {
	ret := &Service{
		client:    &http.Client{Timeout: 30 * time.Second},
		maxResult: 8000,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Definitions returns the web tool definitions.
func (s *Service) Definitions() []*tool.Definition {
	return []*tool.Definition{
		{
			Name:             "web_search",
			Description:      "Search the web for information related to the analysis.",
			Input:            reflect.TypeOf(&SearchInput{}),
			RequiresApproval: true,
			Handler:          s.search,
		},
		{
			Name:             "web_fetch",
			Description:      "Fetch the text content of a specific URL. Use sparingly.",
			Input:            reflect.TypeOf(&FetchInput{}),
			RequiresApproval: true,
			Handler:          s.fetch,
		},
	}
}

func (s *Service) search(ctx context.Context, in interface{}) (string, error) {
	input := in.(*SearchInput)
	if s.searcher == nil {
		return fmt.Sprintf("Web search results for: %s\n\n[no search API configured]", input.Query), nil
	}
	return s.searcher.Search(ctx, input.Query)
}

func (s *Service) fetch(ctx context.Context, in interface{}) (string, error) {
	input := in.(*FetchInput)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return "", err
	}
	response, err := s.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %v: %w", input.URL, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: %s returned status %d", input.URL, response.StatusCode), nil
	}
	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse %v: %w", input.URL, err)
	}
	document.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(document.Find("body").Text())
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > s.maxResult {
		text = text[:s.maxResult] + "..."
	}
	return fmt.Sprintf("Content from %s:\n\n%s", input.URL, text), nil
}
