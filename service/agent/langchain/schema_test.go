package langchain

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleInput struct {
	DocID    string   `json:"doc_id"`
	PageNums []int    `json:"page_nums"`
	Notes    string   `json:"notes,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	skipped  bool
}

func TestSchemaFor(t *testing.T) {
	schema := schemaFor(reflect.TypeOf(&sampleInput{}))

	assert.Equal(t, "object", schema["type"])
	properties := schema["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "string"}, properties["doc_id"])
	assert.Equal(t, map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "integer"},
	}, properties["page_nums"])
	assert.NotContains(t, properties, "skipped")
	assert.ElementsMatch(t, []string{"doc_id", "page_nums"}, schema["required"])
}

func TestSchemaForNilType(t *testing.T) {
	schema := schemaFor(nil)
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
	assert.NotContains(t, schema, "required")
}
