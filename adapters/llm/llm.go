package llm

import (
	"context"
	"fmt"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/logger"
)

// NewLLMService picks the adapter named by llm.provider.
func NewLLMService(ctx context.Context, cfg config.Config, log logger.Logger) (service.LLMService, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return NewGeminiAdapter(ctx, cfg, log)
	case config.ProviderOpenAI:
		return NewOpenAIAdapter(cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
