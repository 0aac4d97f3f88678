package suggestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/domain/profile"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/logger"
)

const (
	defaultModelTimeout      = 60 * time.Second
	defaultBackgroundTimeout = 10 * time.Second
	rawLogLimit              = 2000
)

type state string

const (
	stateStart              state = "start"
	stateProfileLoaded      state = "profile_loaded"
	stateModelCalled        state = "model_called"
	stateResponseNormalized state = "response_normalized"
	statePersisted          state = "persisted"
	stateFailed             state = "failed"
)

// Request drives one stage of the pipeline. ChosenCareer is required for the
// skills stage and optional for the roadmap stage.
type Request struct {
	RequestID    uuid.UUID
	Stage        suggestion.Stage
	ExternalID   string
	ChosenCareer string
}

// Validate checks the request shape without touching any store.
func (r Request) Validate() error {
	if _, err := suggestion.ParseStage(string(r.Stage)); err != nil {
		return apperror.NewInvalidInput(err.Error(), nil)
	}
	if strings.TrimSpace(r.ExternalID) == "" {
		return apperror.NewInvalidInput("external_profile_id is required", nil)
	}
	if r.Stage == suggestion.StageSkills && strings.TrimSpace(r.ChosenCareer) == "" {
		return apperror.NewInvalidInput("chosen_career is required for the skills stage", nil)
	}
	return nil
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.modelTimeout = d }
}

// WithBackgroundTimeout bounds each detached post-processing task.
func WithBackgroundTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.backgroundTimeout = d }
}

// Orchestrator runs profile load, prompt, model call, normalization and
// persistence for one stage. It holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	profiles profile.Repository
	llm      service.LLMService
	writer   suggestion.RecordWriter
	events   service.EventPublisher
	logger   logger.Logger
	tracer   trace.Tracer

	modelTimeout      time.Duration
	backgroundTimeout time.Duration
	background        sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewOrchestrator wires the pipeline. events may be nil.
func NewOrchestrator(
	pr profile.Repository,
	llm service.LLMService,
	w suggestion.RecordWriter,
	ev service.EventPublisher,
	log logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		profiles:          pr,
		llm:               llm,
		writer:            w,
		events:            ev,
		logger:            log,
		tracer:            otel.Tracer("github.com/khoahotran/career-compass/suggestion"),
		modelTimeout:      defaultModelTimeout,
		backgroundTimeout: defaultBackgroundTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}

	ctx, span := o.tracer.Start(ctx, "suggestion.Run", trace.WithAttributes(
		attribute.String("suggestion.stage", string(req.Stage)),
		attribute.String("suggestion.request_id", req.RequestID.String()),
	))
	defer span.End()

	l := o.logger.With(
		zap.String("request_id", req.RequestID.String()),
		zap.String("external_id", req.ExternalID),
		zap.String("stage", string(req.Stage)),
	)
	l.Debug("Suggestion pipeline transition", zap.String("state", string(stateStart)))

	res, err := o.run(ctx, l, req)
	if err != nil {
		appErr := apperror.From(err)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, apperror.Kind(appErr))
		l.Warn("Suggestion pipeline failed",
			zap.String("state", string(stateFailed)),
			zap.String("kind", apperror.Kind(appErr)),
			zap.Error(appErr),
		)
		return nil, appErr
	}

	span.SetAttributes(attribute.Int("suggestion.count", res.Count()))
	l.Info("Suggestion pipeline finished", zap.String("state", string(statePersisted)), zap.Int("count", res.Count()))
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, l logger.Logger, req Request) (*Result, error) {
	p, err := o.loadProfile(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}
	l = l.With(zap.Int64("profile_id", p.ID))
	l.Debug("Suggestion pipeline transition", zap.String("state", string(stateProfileLoaded)))

	career := strings.TrimSpace(req.ChosenCareer)
	switch req.Stage {
	case suggestion.StageSkills:
		p = o.applyChosenCareer(ctx, l, p, career)
	case suggestion.StageRoadmap:
		if career == "" && p.ChosenCareer != nil {
			career = strings.TrimSpace(*p.ChosenCareer)
		}
		if career == "" {
			return nil, apperror.NewInvalidInput("chosen_career is required: none supplied and none stored on the profile", nil)
		}
	}

	raw, err := o.generate(ctx, BuildPrompt(req.Stage, p, career))
	if err != nil {
		return nil, err
	}
	l.Debug("Suggestion pipeline transition", zap.String("state", string(stateModelCalled)), zap.Int("raw_len", len(raw)))

	res, err := Normalize(req.Stage, raw)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			l.Warn("Model returned malformed response",
				zap.String("details", appErr.Details),
				zap.String("raw", logger.Truncate(appErr.RawOutput, rawLogLimit)),
			)
		}
		return nil, err
	}
	res.Career = career
	res.RunID = req.RequestID
	l.Debug("Suggestion pipeline transition", zap.String("state", string(stateResponseNormalized)), zap.Int("count", res.Count()))

	if err := o.persist(ctx, p.ID, res.Records()); err != nil {
		return nil, err
	}

	if req.Stage == suggestion.StageSkills {
		profileID := p.ID
		o.goBackground(ctx, l, "mark profile completed", func(ctx context.Context) error {
			return o.profiles.MarkCompleted(ctx, profileID)
		})
	}
	if o.events != nil {
		ev := service.SuggestionEvent{
			RequestID:  req.RequestID,
			EventType:  service.EventStageCompleted,
			ExternalID: req.ExternalID,
			Stage:      string(req.Stage),
			Count:      res.Count(),
		}
		o.goBackground(ctx, l, "publish stage event", func(ctx context.Context) error {
			return o.events.PublishSuggestionEvent(ctx, ev)
		})
	}
	return res, nil
}

func (o *Orchestrator) loadProfile(ctx context.Context, externalID string) (*profile.Profile, error) {
	ctx, span := o.tracer.Start(ctx, "suggestion.loadProfile")
	defer span.End()

	p, err := o.profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) || errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewProfileNotFound(externalID)
		}
		return nil, apperror.NewPersistenceFailed("failed to load profile", 0, 0, err)
	}
	if p == nil {
		return nil, apperror.NewProfileNotFound(externalID)
	}
	return p, nil
}

// applyChosenCareer stores the chosen career and re-reads the profile. Both steps
// are best-effort: on failure the in-memory profile is used with the requested career.
func (o *Orchestrator) applyChosenCareer(ctx context.Context, l logger.Logger, p *profile.Profile, career string) *profile.Profile {
	merged := p.WithChosenCareer(career)

	if err := o.profiles.UpdateChosenCareer(ctx, p.ID, career); err != nil {
		l.Error("Failed to update chosen career, continuing with in-memory profile", err)
		return merged
	}

	fresh, err := o.profiles.GetByExternalID(ctx, p.ExternalID)
	if err != nil || fresh == nil {
		l.Error("Failed to re-read profile after chosen career update, continuing with in-memory profile", err)
		return merged
	}
	return fresh.WithChosenCareer(career)
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "suggestion.generate", trace.WithAttributes(attribute.Int("prompt.length", len(prompt))))
	defer span.End()

	if o.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.modelTimeout)
		defer cancel()
	}

	raw, err := o.llm.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, apperror.ErrModelUnavailable) {
			return "", err
		}
		return "", apperror.NewModelUnavailable("model call failed", err)
	}
	return raw, nil
}

// persist writes every record independently. Records already written are kept
// when a later one fails; the failure reports how many made it.
func (o *Orchestrator) persist(ctx context.Context, profileID int64, recs []suggestion.Record) error {
	ctx, span := o.tracer.Start(ctx, "suggestion.persist", trace.WithAttributes(attribute.Int("records", len(recs))))
	defer span.End()

	written := 0
	var errs []error
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := o.writer.WriteRecord(ctx, profileID, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", rec.Position, err))
			continue
		}
		written++
	}

	span.SetAttributes(attribute.Int("written", written))
	if written < len(recs) {
		details := fmt.Sprintf("%d of %d %s records written", written, len(recs), recs[0].Stage)
		return apperror.NewPersistenceFailed(details, written, len(recs), errors.Join(errs...))
	}
	return nil
}

// goBackground runs fn detached from the request's cancellation. Its error is
// only logged. After Shutdown the task is dropped.
func (o *Orchestrator) goBackground(ctx context.Context, l logger.Logger, name string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		l.Warn("Background task dropped after shutdown: " + name)
		return
	}
	o.background.Add(1)
	o.mu.Unlock()
	go func() {
		defer o.background.Done()
		ctx, cancel := context.WithTimeout(ctx, o.backgroundTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			l.Error("Background task failed: "+name, err)
		}
	}()
}

// Wait blocks until every background task started so far has finished.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// Shutdown stops accepting background tasks and waits for the running ones.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.background.Wait()
}
