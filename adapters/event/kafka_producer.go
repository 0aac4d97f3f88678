package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/logger"
)

const (
	TopicSuggestionRequests = "suggestion.requests"
	TopicSuggestionEvents   = "suggestion.events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducerClient publishes JSON messages keyed by external profile id so
// all runs of one profile land on the same partition.
type KafkaProducerClient struct {
	requestsWriter messageWriter
	eventsWriter   messageWriter
	logger         logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, errors.New("config Kafka brokers not found")
	}

	requestsWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicSuggestionRequests,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	eventsWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicSuggestionEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))
	return newKafkaProducerClient(requestsWriter, eventsWriter, log), nil
}

func newKafkaProducerClient(requests, events messageWriter, log logger.Logger) *KafkaProducerClient {
	return &KafkaProducerClient{requestsWriter: requests, eventsWriter: events, logger: log}
}

func (c *KafkaProducerClient) PublishSuggestionRequested(ctx context.Context, ev service.SuggestionRequestedEvent) error {
	return c.publish(ctx, c.requestsWriter, TopicSuggestionRequests, ev.ExternalID, ev)
}

func (c *KafkaProducerClient) PublishSuggestionEvent(ctx context.Context, ev service.SuggestionEvent) error {
	return c.publish(ctx, c.eventsWriter, TopicSuggestionEvents, ev.ExternalID, ev)
}

func (c *KafkaProducerClient) publish(ctx context.Context, w messageWriter, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	c.logger.Debug("Published message", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.requestsWriter != nil {
		if err := c.requestsWriter.Close(); err != nil {
			c.logger.Error("Failed to close requests writer", err)
		}
	}
	if c.eventsWriter != nil {
		if err := c.eventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close events writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}
