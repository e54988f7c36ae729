// Package langchain implements the planner seam on top of langchaingo,
// keeping the orchestrator vendor-neutral.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/agent"
	"github.com/dataroomhq/diligence/service/tool"
)

// Config for the langchain planner.
type Config struct {
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the standard planner settings.
func DefaultConfig() Config {
	return Config{Temperature: 0.2, MaxTokens: 4000}
}

// Planner asks an LLM for the next agent step using native tool calling.
type Planner struct {
	llm    llms.Model
	config Config
}

// New creates a planner over the given model.
func New(llm llms.Model, config Config) *Planner {
	return &Planner{llm: llm, config: config}
}

// Next produces the next plan for the conversation.
func (p *Planner) Next(ctx context.Context, messages []*model.Message, tools []*tool.Definition) (*agent.Plan, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, message := range messages {
		converted, err := convertMessage(message)
		if err != nil {
			return nil, err
		}
		content = append(content, converted)
	}

	response, err := p.llm.GenerateContent(ctx, content,
		llms.WithTools(convertTools(tools)),
		llms.WithTemperature(p.config.Temperature),
		llms.WithMaxTokens(p.config.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("planner error: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("planner returned no choices")
	}

	choice := response.Choices[0]
	plan := &agent.Plan{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		plan.ToolCalls = append(plan.ToolCalls, model.ToolCall{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: json.RawMessage(call.FunctionCall.Arguments),
		})
	}
	return plan, nil
}

func convertMessage(message *model.Message) (llms.MessageContent, error) {
	switch message.Role {
	case model.RoleSystem:
		return llms.TextParts(llms.ChatMessageTypeSystem, message.Content), nil
	case model.RoleUser:
		return llms.TextParts(llms.ChatMessageTypeHuman, message.Content), nil
	case model.RoleAssistant:
		ret := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if message.Content != "" {
			ret.Parts = append(ret.Parts, llms.TextPart(message.Content))
		}
		for _, call := range message.ToolCalls {
			ret.Parts = append(ret.Parts, llms.ToolCall{
				ID:   call.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		return ret, nil
	case model.RoleTool:
		return llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: message.ToolCallID,
				Name:       message.ToolName,
				Content:    message.Content,
			}},
		}, nil
	}
	return llms.MessageContent{}, fmt.Errorf("unsupported message role: %v", message.Role)
}

func convertTools(tools []*tool.Definition) []llms.Tool {
	ret := make([]llms.Tool, 0, len(tools))
	for _, definition := range tools {
		ret = append(ret, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        definition.Name,
				Description: definition.Description,
				Parameters:  schemaFor(definition.Input),
			},
		})
	}
	return ret
}
