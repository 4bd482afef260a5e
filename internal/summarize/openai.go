package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const summaryPrompt = "Provide a concise summary of the following text in 100 words or less. Focus on the key points and main ideas:\n\n"

// OpenAIClient summarizes text through any OpenAI-compatible chat API.
// The default base URL is Gemini's compatibility endpoint.
type OpenAIClient struct {
	cli     *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates a chat client
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIClient{
		cli:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}
}

// Summarize asks the model for a short summary of text
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: summaryPrompt + text,
			},
		},
	}

	resp, err := c.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summary API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary API returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
