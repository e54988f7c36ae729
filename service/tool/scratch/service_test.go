package scratch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/dao/store"
	"github.com/dataroomhq/diligence/service/tool"
)

func fileKey(f *model.AgentFile) string { return f.ID }

func newRegistry(files *store.MemoryStore[string, model.AgentFile]) *tool.Registry {
	return tool.NewRegistry(New("session-1", files).Definitions()...)
}

func TestWriteReadList(t *testing.T) {
	files := store.NewMemoryStore[string, model.AgentFile](fileKey)
	registry := newRegistry(files)
	ctx := context.Background()

	result, err := registry.Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "report.md",
		"content":   "# Findings\n",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "report.md")

	result, err = registry.Execute(ctx, "read_file", map[string]interface{}{"file_path": "report.md"})
	require.NoError(t, err)
	assert.Equal(t, "# Findings\n", result)

	result, err = registry.Execute(ctx, "list_files", nil)
	require.NoError(t, err)
	assert.Equal(t, "report.md", result)
}

func TestEditProducesDiff(t *testing.T) {
	files := store.NewMemoryStore[string, model.AgentFile](fileKey)
	registry := newRegistry(files)
	ctx := context.Background()

	_, err := registry.Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "report.md",
		"content":   "risk: low\n",
	})
	require.NoError(t, err)

	result, err := registry.Execute(ctx, "edit_file", map[string]interface{}{
		"file_path":  "report.md",
		"old_string": "low",
		"new_string": "high",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "-risk: low")
	assert.Contains(t, result, "+risk: high")

	content, err := registry.Execute(ctx, "read_file", map[string]interface{}{"file_path": "report.md"})
	require.NoError(t, err)
	assert.Equal(t, "risk: high\n", content)
}

func TestEditMissingTargets(t *testing.T) {
	files := store.NewMemoryStore[string, model.AgentFile](fileKey)
	registry := newRegistry(files)
	ctx := context.Background()

	result, err := registry.Execute(ctx, "edit_file", map[string]interface{}{
		"file_path": "ghost.md", "old_string": "a", "new_string": "b",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "not found")

	_, err = registry.Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "report.md", "content": "text",
	})
	require.NoError(t, err)
	result, err = registry.Execute(ctx, "edit_file", map[string]interface{}{
		"file_path": "report.md", "old_string": "absent", "new_string": "b",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "old_string not found")
}

func TestSessionScoping(t *testing.T) {
	files := store.NewMemoryStore[string, model.AgentFile](fileKey)
	ctx := context.Background()

	_, err := newRegistry(files).Execute(ctx, "write_file", map[string]interface{}{
		"file_path": "mine.md", "content": "a",
	})
	require.NoError(t, err)

	other := tool.NewRegistry(New("session-2", files).Definitions()...)
	result, err := other.Execute(ctx, "list_files", nil)
	require.NoError(t, err)
	assert.Equal(t, "No scratch files yet.", result)
}
