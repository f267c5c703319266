package agent

import (
	"context"
	"fmt"

	"github.com/ddc002021/MapServerMCP/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient talks to the OpenAI chat completions endpoint through
// langchaingo.
type OpenAIClient struct {
	llm   llms.Model
	model string
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &OpenAIClient{llm: llm, model: model}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, transcript []models.Turn, tools []ToolSpec) (*ModelReply, error) {
	messages, err := toOpenAIMessages(transcript)
	if err != nil {
		return nil, err
	}

	openAITools, err := toOpenAITools(tools)
	if err != nil {
		return nil, err
	}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTools(openAITools))
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI API returned no choices")
	}

	choice := resp.Choices[0]
	reply := &ModelReply{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		reply.ToolRequests = append(reply.ToolRequests, models.ToolRequest{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: call.FunctionCall.Arguments,
		})
	}

	return reply, nil
}

func toOpenAIMessages(transcript []models.Turn) ([]llms.MessageContent, error) {
	var messages []llms.MessageContent

	for _, turn := range transcript {
		switch turn.Role {
		case models.RoleSystem:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, turn.Content))
		case models.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, turn.Content))
		case models.RoleAssistant:
			message := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if turn.Content != "" {
				message.Parts = append(message.Parts, llms.TextContent{Text: turn.Content})
			}
			for _, request := range turn.ToolRequests {
				message.Parts = append(message.Parts, llms.ToolCall{
					ID:   request.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      request.Name,
						Arguments: request.Arguments,
					},
				})
			}
			messages = append(messages, message)
		case models.RoleTool:
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: turn.ToolRequestID,
						Content:    turn.Content,
					},
				},
			})
		default:
			return nil, fmt.Errorf("unsupported turn role %q", turn.Role)
		}
	}

	return messages, nil
}

func toOpenAITools(tools []ToolSpec) ([]llms.Tool, error) {
	var openAITools []llms.Tool
	for _, tool := range tools {
		properties, err := schemaProperties(tool.Schema)
		if err != nil {
			return nil, err
		}
		openAITools = append(openAITools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   tool.Schema.Required,
				},
			},
		})
	}
	return openAITools, nil
}
