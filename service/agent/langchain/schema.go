package langchain

import (
	"reflect"
	"strings"
)

// schemaFor derives a JSON-schema object from a tool input struct. Field
// names come from json tags; fields without a tag are skipped.
func schemaFor(inputType reflect.Type) map[string]interface{} {
	ret := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	if inputType == nil {
		return ret
	}
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	if inputType.Kind() != reflect.Struct {
		return ret
	}
	properties := ret["properties"].(map[string]interface{})
	var required []string
	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		properties[name] = schemaForType(field.Type)
		if !strings.Contains(tag, "omitempty") {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		ret["required"] = required
	}
	return ret
}

func schemaForType(fieldType reflect.Type) map[string]interface{} {
	switch fieldType.Kind() {
	case reflect.Ptr:
		return schemaForType(fieldType.Elem())
	case reflect.String:
		return map[string]interface{}{"type": "string"}
	case reflect.Bool:
		return map[string]interface{}{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]interface{}{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]interface{}{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]interface{}{
			"type":  "array",
			"items": schemaForType(fieldType.Elem()),
		}
	case reflect.Struct:
		nested := schemaFor(fieldType)
		return nested
	default:
		return map[string]interface{}{"type": "object"}
	}
}
