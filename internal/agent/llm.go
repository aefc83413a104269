package agent

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
)

// LLMConfig holds settings shared by all LLM-backed agents
type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LLMClient wraps the OpenAI client with the request shape and timeout policy
// every agent uses
type LLMClient struct {
	client  *openai.Client
	model   string
	temp    float32
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMClient creates a shared LLM caller
func NewLLMClient(cfg LLMConfig, logger *zap.Logger) *LLMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMClient{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		timeout: timeout,
		logger:  logger,
	}
}

// Complete sends a system+user prompt pair and returns the raw completion.
// A timeout or transport failure is surfaced as an InfrastructureError so the
// engine can distinguish it from a domain verdict.
func (c *LLMClient) Complete(ctx context.Context, agentName, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("LLM call failed",
			zap.String("agent", agentName),
			zap.Error(err))
		return "", &workflow.InfrastructureError{Collaborator: agentName, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &workflow.InfrastructureError{
			Collaborator: agentName,
			Err:          fmt.Errorf("empty completion"),
		}
	}

	return resp.Choices[0].Message.Content, nil
}
