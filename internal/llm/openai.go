package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/kaiwa/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAICompleter calls an OpenAI-compatible /chat/completions endpoint.
type OpenAICompleter struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAICompleter creates a completer for model. limiter may be nil.
func NewOpenAICompleter(client *openai.Client, model string, limiter *rate.Limiter) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model, limiter: limiter}
}

// Complete sends messages in order and returns the first choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []models.Turn) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
