package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
)

func openAIConfig(baseURL string) config.Config {
	var cfg config.Config
	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.LLM.Model = "phi3:mini"
	cfg.LLM.BaseURL = baseURL
	return cfg
}

func TestOpenAIAdapter_Generate(t *testing.T) {
	var gotModel, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"suggestions\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(context.Background(), openAIConfig(srv.URL), logger.NewNopLogger())
	require.NoError(t, err)

	raw, err := svc.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"suggestions":[]}`, raw)
	assert.Equal(t, "phi3:mini", gotModel)
	assert.Equal(t, "hello", gotPrompt)
}

func TestOpenAIAdapter_UpstreamErrorIsModelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	svc, err := NewOpenAIAdapter(openAIConfig(srv.URL), logger.NewNopLogger())
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, apperror.ErrModelUnavailable)
}

func TestOpenAIAdapter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	svc, err := NewOpenAIAdapter(openAIConfig(srv.URL), logger.NewNopLogger())
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, apperror.ErrModelUnavailable)
}

func TestNewLLMService_Config(t *testing.T) {
	var cfg config.Config
	cfg.LLM.Provider = "bogus"
	_, err := NewLLMService(context.Background(), cfg, logger.NewNopLogger())
	assert.Error(t, err)

	cfg.LLM.Provider = config.ProviderOpenAI
	_, err = NewLLMService(context.Background(), cfg, logger.NewNopLogger())
	assert.Error(t, err, "openai needs a key or base url")

	cfg.LLM.Provider = config.ProviderGemini
	_, err = NewLLMService(context.Background(), cfg, logger.NewNopLogger())
	assert.Error(t, err, "gemini needs an api key")
}
