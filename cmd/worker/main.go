package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/adapters/event"
	"github.com/khoahotran/career-compass/adapters/llm"
	"github.com/khoahotran/career-compass/adapters/persistence"
	"github.com/khoahotran/career-compass/internal/application/service"
	suggestionUC "github.com/khoahotran/career-compass/internal/application/usecase/suggestion"
	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
	"github.com/khoahotran/career-compass/pkg/tracing"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	appLogger.Info("Starting Career Compass Worker...")

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Worker needs Kafka brokers", errors.New("kafka.brokers is empty"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.NewTracerProvider(ctx, cfg, appLogger, cfg.Tracing.ServiceName+"-worker")
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Repositories
	profileRepo := persistence.NewPostgresProfileRepo(dbPool)
	suggestionRepo := persistence.NewPostgresSuggestionRepo(dbPool)
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		profileRepo = persistence.NewCachedProfileRepo(profileRepo, redisClient, cfg.Redis.ProfileTTL, appLogger)
	}

	llmSvc, err := llm.NewLLMService(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init LLM adapter", err)
	}

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Worker Use Case
	orchestrator := suggestionUC.NewOrchestrator(
		profileRepo,
		llmSvc,
		suggestionRepo,
		kafkaClient,
		appLogger,
		suggestionUC.WithModelTimeout(cfg.LLM.Timeout),
	)
	defer orchestrator.Shutdown()

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicSuggestionRequests,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicSuggestionRequests), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("Worker stopping")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		handleMessage(ctx, orchestrator, appLogger, msg)
		if ctx.Err() != nil {
			// Interrupted runs stay uncommitted and are redelivered.
			appLogger.Info("Worker stopping")
			return
		}
		commitMessage(consumer, appLogger, msg)
	}
}

// handleMessage runs one queued request. Every outcome is terminal for the
// message; a failed run is logged and the caller resubmits.
func handleMessage(ctx context.Context, orch *suggestionUC.Orchestrator, log logger.Logger, msg kafka.Message) {
	l := log.With(zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

	var payload service.SuggestionRequestedEvent
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		l.Error("Failed to unmarshal event. Skipping.", err)
		return
	}

	res, err := orch.Run(ctx, suggestionUC.RequestFromEvent(payload))
	if err != nil {
		l.Warn("Queued suggestion request failed",
			zap.String("request_id", payload.RequestID.String()),
			zap.String("kind", apperror.Kind(err)),
			zap.Error(err),
		)
		return
	}
	l.Info("Queued suggestion request processed",
		zap.String("request_id", payload.RequestID.String()),
		zap.Int("count", res.Count()),
	)
}

func commitMessage(consumer *kafka.Reader, log logger.Logger, msg kafka.Message) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
