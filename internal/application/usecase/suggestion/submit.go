package suggestion

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
)

// SubmitUseCase queues a pipeline run for the worker instead of running it inline.
type SubmitUseCase struct {
	events service.EventPublisher
	logger logger.Logger
}

func NewSubmitUseCase(ev service.EventPublisher, log logger.Logger) *SubmitUseCase {
	return &SubmitUseCase{events: ev, logger: log}
}

func (uc *SubmitUseCase) Execute(ctx context.Context, req Request) (uuid.UUID, error) {
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}

	ev := service.SuggestionRequestedEvent{
		RequestID:    req.RequestID,
		Stage:        string(req.Stage),
		ExternalID:   req.ExternalID,
		ChosenCareer: req.ChosenCareer,
	}
	if err := uc.events.PublishSuggestionRequested(ctx, ev); err != nil {
		return uuid.Nil, apperror.NewInternal("failed to queue suggestion request", err)
	}

	uc.logger.Info("Suggestion request queued",
		zap.String("request_id", req.RequestID.String()),
		zap.String("stage", ev.Stage),
		zap.String("external_id", req.ExternalID),
	)
	return req.RequestID, nil
}

// RequestFromEvent rebuilds a Request from a queued event.
func RequestFromEvent(ev service.SuggestionRequestedEvent) Request {
	return Request{
		RequestID:    ev.RequestID,
		Stage:        suggestion.Stage(ev.Stage),
		ExternalID:   ev.ExternalID,
		ChosenCareer: ev.ChosenCareer,
	}
}
