// Package tool defines the agent tool registry. Tools are registered with a
// typed argument contract, an executor and an approval flag; the registry is
// immutable once the agent holds it, so which tools are gated can never
// change mid-run.
package tool

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/viant/structology/conv"
)

// Handler executes a tool call with its typed input and returns the textual
// result handed back to the agent.
type Handler func(ctx context.Context, input interface{}) (string, error)

// Definition describes a single registered tool.
type Definition struct {
	Name             string
	Description      string
	Input            reflect.Type // struct type of the argument contract
	RequiresApproval bool
	Handler          Handler
}

// Registry maps tool names to definitions. It is built once and never
// mutated afterwards; With returns extended copies instead.
type Registry struct {
	definitions map[string]*Definition
	converter   *conv.Converter
}

// NewRegistry creates a registry from the supplied definitions.
func NewRegistry(definitions ...*Definition) *Registry {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	ret := &Registry{
		definitions: make(map[string]*Definition, len(definitions)),
		converter:   conv.NewConverter(options),
	}
	for _, definition := range definitions {
		ret.definitions[definition.Name] = definition
	}
	return ret
}

// With returns a new registry extended with the supplied definitions; the
// receiver is left untouched.
func (r *Registry) With(definitions ...*Definition) *Registry {
	merged := make([]*Definition, 0, len(r.definitions)+len(definitions))
	for _, definition := range r.definitions {
		merged = append(merged, definition)
	}
	merged = append(merged, definitions...)
	return NewRegistry(merged...)
}

// Lookup returns the definition for a tool name or nil.
func (r *Registry) Lookup(name string) *Definition {
	return r.definitions[name]
}

// Definitions returns all definitions ordered by name.
func (r *Registry) Definitions() []*Definition {
	ret := make([]*Definition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		ret = append(ret, definition)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// RequiresApproval reports whether the named tool is gated. Unknown tools
// are treated as gated so nothing unvetted ever executes silently.
func (r *Registry) RequiresApproval(name string) bool {
	definition := r.definitions[name]
	if definition == nil {
		return true
	}
	return definition.RequiresApproval
}

// Execute converts the generic arguments into the tool's typed input and
// invokes its handler.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	definition := r.definitions[name]
	if definition == nil {
		return "", fmt.Errorf("tool %v not found", name)
	}
	input, err := r.typedInput(definition, args)
	if err != nil {
		return "", fmt.Errorf("invalid arguments for tool %v: %w", name, err)
	}
	return definition.Handler(ctx, input)
}

func (r *Registry) typedInput(definition *Definition, args map[string]interface{}) (interface{}, error) {
	if definition.Input == nil {
		return args, nil
	}
	inputType := definition.Input
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	instance := reflect.New(inputType).Interface()
	if err := r.converter.Convert(args, instance); err != nil {
		return nil, err
	}
	return instance, nil
}
