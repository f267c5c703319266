package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddc002021/MapServerMCP/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicClient talks to the Anthropic messages endpoint. The system turn
// travels in the dedicated system field rather than the message list.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{client: &client, model: model}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, transcript []models.Turn, tools []ToolSpec) (*ModelReply, error) {
	system, messages, err := toAnthropicMessages(transcript)
	if err != nil {
		return nil, err
	}

	toolSpecs, err := toAnthropicTools(tools)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
		Tools:     toolSpecs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	reply := &ModelReply{}
	for _, block := range response.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			reply.Content += block.Text
		case anthropic.ToolUseBlock:
			arguments, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to encode tool arguments: %w", err)
			}
			reply.ToolRequests = append(reply.ToolRequests, models.ToolRequest{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(arguments),
			})
		}
	}

	return reply, nil
}

func toAnthropicMessages(transcript []models.Turn) (string, []anthropic.MessageParam, error) {
	var system string
	var messages []anthropic.MessageParam

	for _, turn := range transcript {
		switch turn.Role {
		case models.RoleSystem:
			system = turn.Content
		case models.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case models.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if turn.Content != "" {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: turn.Content},
				})
			}
			for _, request := range turn.ToolRequests {
				var input map[string]any
				if err := json.Unmarshal([]byte(request.Arguments), &input); err != nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    request.ID,
						Name:  request.Name,
						Input: input,
					},
				})
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		case models.RoleTool:
			// Anthropic expects tool results inside a user message.
			messages = append(messages, anthropic.NewUserMessage(anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: turn.ToolRequestID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: turn.Content}},
					},
				},
			}))
		default:
			return "", nil, fmt.Errorf("unsupported turn role %q", turn.Role)
		}
	}

	return system, messages, nil
}

func toAnthropicTools(tools []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	var toolSpecs []anthropic.ToolUnionParam
	for _, tool := range tools {
		properties, err := schemaProperties(tool.Schema)
		if err != nil {
			return nil, err
		}
		toolSpecs = append(toolSpecs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
				},
			},
		})
	}
	return toolSpecs, nil
}
