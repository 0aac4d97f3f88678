package service

import (
	"context"
)

// LLMService sends one prompt to a generative text model and returns its raw text.
// Transport, timeout and auth failures are reported as apperror.ErrModelUnavailable.
// The output is never parsed here.
type LLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
