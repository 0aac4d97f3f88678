package service

import (
	"context"

	"github.com/google/uuid"
)

const (
	EventStageCompleted = "stage.completed"
)

// SuggestionRequestedEvent is a queued pipeline run, consumed by the worker.
type SuggestionRequestedEvent struct {
	RequestID    uuid.UUID `json:"request_id"`
	Stage        string    `json:"stage"`
	ExternalID   string    `json:"external_profile_id"`
	ChosenCareer string    `json:"chosen_career,omitempty"`
}

// SuggestionEvent announces the outcome of a finished stage.
type SuggestionEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	EventType  string    `json:"event_type"`
	ExternalID string    `json:"external_profile_id"`
	Stage      string    `json:"stage"`
	Count      int       `json:"count"`
}

type EventPublisher interface {
	PublishSuggestionRequested(ctx context.Context, ev SuggestionRequestedEvent) error
	PublishSuggestionEvent(ctx context.Context, ev SuggestionEvent) error
}
