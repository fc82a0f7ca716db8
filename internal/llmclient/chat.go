package llmclient

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	client *openai.Client
	model  string
}

// NewChatClient creates a ChatClient. model is used unless the caller
// overrides it per request via GenerateWithModel.
func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate sends the fixed two-message template (system, user) and returns
// the model's text verbatim.
func (c *ChatClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.GenerateWithModel(ctx, c.model, systemPrompt, userPrompt)
}

// GenerateWithModel is like Generate but overrides the configured model
// name for this call, per the query request's optional model_name field.
func (c *ChatClient) GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if model == "" {
		model = c.model
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llmclient.Generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmclient.Generate: empty response from model")
	}

	return resp.Choices[0].Message.Content, nil
}
