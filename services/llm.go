package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/wanessald/chatbot-payroll/models"
)

// LLMClient is the language-model collaborator used for parameter extraction
// and general conversation.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Purpose     string // "extraction" or "chat", for metrics
	Messages    []models.ChatMessage
	JSON        bool
	Temperature float32
}

type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAIClient talks to any OpenAI-compatible endpoint. ratePerSecond
// bounds outgoing requests; callers wait for a token or their context.
func NewOpenAIClient(apiKey, baseURL, model string, ratePerSecond float64, burst int) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if burst < 1 {
		burst = 1
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSON {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, apiReq)
	llmLatency.WithLabelValues(req.Purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from language model")
	}
	return resp.Choices[0].Message.Content, nil
}
