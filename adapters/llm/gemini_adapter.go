package llm

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
)

type geminiAdapter struct {
	client *genai.Client
	model  string
	log    logger.Logger
}

func NewGeminiAdapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.LLMService, error) {
	if cfg.LLM.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Gemini LLM Adapter initialized", zap.String("model", cfg.LLM.Model))
	return &geminiAdapter{client: client, model: cfg.LLM.Model, log: log}, nil
}

func (a *geminiAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", apperror.NewModelUnavailable("gemini request failed", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperror.NewModelUnavailable("gemini returned no candidates", nil)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		a.log.Warn("Gemini returned empty text", zap.String("finish_reason", string(resp.Candidates[0].FinishReason)))
	}
	return text, nil
}
