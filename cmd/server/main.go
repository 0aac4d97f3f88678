package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/adapters/event"
	httpAdapter "github.com/khoahotran/career-compass/adapters/http"
	"github.com/khoahotran/career-compass/adapters/llm"
	"github.com/khoahotran/career-compass/adapters/persistence"
	"github.com/khoahotran/career-compass/internal/application/service"
	suggestionUC "github.com/khoahotran/career-compass/internal/application/usecase/suggestion"
	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/auth"
	"github.com/khoahotran/career-compass/pkg/logger"
	"github.com/khoahotran/career-compass/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	appLogger.Info("Start Career Compass API Server...")

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.NewTracerProvider(ctx, cfg, appLogger, cfg.Tracing.ServiceName)
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}

	// Initialize dependencies
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

	// Services
	llmSvc, err := llm.NewLLMService(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init LLM adapter", err)
	}

	var publisher service.EventPublisher
	var submitter httpAdapter.SuggestionSubmitter
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
		submitter = suggestionUC.NewSubmitUseCase(kafkaClient, appLogger)
	} else {
		appLogger.Warn("Kafka brokers not configured: async submission and stage events disabled")
	}

	var jwtSvc *auth.JWTService
	if cfg.Auth.JWTSecret != "" {
		jwtSvc = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	} else {
		appLogger.Warn("JWT secret not configured: suggestion routes are unauthenticated")
	}

	// Use Cases
	orchestrator := suggestionUC.NewOrchestrator(
		profileRepo,
		llmSvc,
		suggestionRepo,
		publisher,
		appLogger,
		suggestionUC.WithModelTimeout(cfg.LLM.Timeout),
	)
	queryUseCase := suggestionUC.NewQueryUseCase(profileRepo, suggestionRepo)

	// HTTP
	suggestionHandler := httpAdapter.NewSuggestionHandler(orchestrator, submitter, queryUseCase, appLogger)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SuggestionHandler: suggestionHandler,
		JWT:               jwtSvc,
		AllowOrigins:      cfg.CORS.AllowOrigins,
		ServiceName:       cfg.Tracing.ServiceName,
		Logger:            appLogger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Cannot run server", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	orchestrator.Shutdown()
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Failed to flush traces", err)
	}
	appLogger.Info("Server exited")
}
