package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataroomhq/diligence/service/tool"
)

func TestFetchExtractsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><script>ignored()</script></head>
			<body><h1>Escrow terms</h1><p>Funds held for 18 months.</p></body></html>`))
	}))
	defer server.Close()

	registry := tool.NewRegistry(New().Definitions()...)
	assert.True(t, registry.RequiresApproval("web_fetch"))

	result, err := registry.Execute(context.Background(), "web_fetch", map[string]interface{}{
		"url": server.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Escrow terms")
	assert.Contains(t, result, "Funds held for 18 months.")
	assert.NotContains(t, result, "ignored()")
}

func TestFetchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	registry := tool.NewRegistry(New().Definitions()...)
	result, err := registry.Execute(context.Background(), "web_fetch", map[string]interface{}{
		"url": server.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, result, "status 404")
}

type fakeSearcher struct{}

func (s *fakeSearcher) Search(_ context.Context, query string) (string, error) {
	return "results for " + query, nil
}

func TestSearch(t *testing.T) {
	registry := tool.NewRegistry(New().Definitions()...)
	result, err := registry.Execute(context.Background(), "web_search", map[string]interface{}{
		"query": "escrow norms",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "no search API configured")

	registry = tool.NewRegistry(New(WithSearcher(&fakeSearcher{})).Definitions()...)
	result, err = registry.Execute(context.Background(), "web_search", map[string]interface{}{
		"query": "escrow norms",
	})
	require.NoError(t, err)
	assert.Equal(t, "results for escrow norms", result)
}
