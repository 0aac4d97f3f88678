package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
)

type openAIAdapter struct {
	client *openai.Client
	model  string
	log    logger.Logger
}

// NewOpenAIAdapter talks to any OpenAI-compatible chat endpoint. With a
// base URL and no key it works against a local Ollama.
func NewOpenAIAdapter(cfg config.Config, log logger.Logger) (service.LLMService, error) {
	if cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
		return nil, errors.New("openai provider needs an api key or a base url")
	}

	key := cfg.LLM.APIKey
	if key == "" {
		key = "dummy-key"
	}
	oc := openai.DefaultConfig(key)
	if cfg.LLM.BaseURL != "" {
		oc.BaseURL = cfg.LLM.BaseURL
	}

	log.Info("OpenAI-compatible LLM Adapter initialized", zap.String("model", cfg.LLM.Model), zap.String("base_url", oc.BaseURL))
	return &openAIAdapter{client: openai.NewClientWithConfig(oc), model: cfg.LLM.Model, log: log}, nil
}

func (a *openAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Stream:         false,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", apperror.NewModelUnavailable("chat completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperror.NewModelUnavailable("model returned no chat choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}
