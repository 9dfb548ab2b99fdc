package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"healthrisk/internal/profile/metrics"
	"healthrisk/internal/profile/ports"
	dErrors "healthrisk/pkg/domain-errors"
	"healthrisk/pkg/platform/audit"
	"healthrisk/pkg/platform/sentinel"
	"healthrisk/pkg/requestcontext"
)

const tracerName = "healthrisk/internal/profile"

// Service runs surveys through the pipeline and records the outcome.
// It is safe for concurrent use; all state lives in its collaborators.
type Service struct {
	store     AssessmentStore
	extractor ports.TextExtractor
	auditor   ports.AuditPort
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

// WithExtractor sets the backend used to read text off uploaded images.
// Without one every image degrades to an incomplete profile.
func WithExtractor(e ports.TextExtractor) Option {
	return func(s *Service) {
		s.extractor = e
	}
}

func WithAuditor(a ports.AuditPort) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service.
func New(store AssessmentStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("assessment store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Analyze evaluates the survey and persists the result.
// Persistence and audit failures are logged; the caller still gets its assessment.
func (s *Service) Analyze(ctx context.Context, input Input) (*Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Analyze")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveAnalyzeLatency(time.Since(start)) }()

	source := sourceOf(input)
	span.SetAttributes(attribute.String("profile.source", string(source)))

	eval, err := Evaluate(input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	a := newAssessment(uuid.New(), source, eval, requestcontext.Now(ctx))
	span.SetAttributes(
		attribute.String("profile.assessment_id", a.ID.String()),
		attribute.String("profile.status", string(a.Status)),
		attribute.String("profile.risk_level", string(a.RiskLevel)),
	)

	s.metrics.IncrementOutcome(string(a.Status), string(a.RiskLevel))
	s.metrics.ObserveConfidence(string(source), a.Confidence)

	for _, d := range eval.Normalized.Dropped {
		s.logger.WarnContext(ctx, "dropped unparseable survey value",
			"request_id", requestcontext.RequestID(ctx),
			"field", d.Field,
			"value", d.Value,
		)
	}

	if err := s.store.Save(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to save assessment",
			"request_id", requestcontext.RequestID(ctx),
			"assessment_id", a.ID,
			"error", err,
		)
	}

	s.logAudit(ctx, a)
	return a, nil
}

// AnalyzeImage reads the survey off an image and analyzes what was found.
// Extraction failures are absorbed: the survey is treated as empty and the
// guardrail reports every field missing.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte, mediaType string) (*Assessment, error) {
	return s.Analyze(ctx, ExtractedLines{Lines: s.extract(ctx, image, mediaType)})
}

// Get loads a previously produced assessment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assessment")
	}
	return a, nil
}

func (s *Service) extract(ctx context.Context, image []byte, mediaType string) []Line {
	if s.extractor == nil {
		s.logger.WarnContext(ctx, "no text extractor configured, image treated as empty",
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}

	backend := s.extractor.Backend()
	ctx, span := s.tracer.Start(ctx, "profile.Extract",
		trace.WithAttributes(attribute.String("extraction.backend", backend)))
	defer span.End()

	start := time.Now()
	textLines, err := s.callExtractor(ctx, image, mediaType)
	s.metrics.ObserveExtraction(backend, time.Since(start), err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "text extraction failed, image treated as empty",
			"request_id", requestcontext.RequestID(ctx),
			"backend", backend,
			"error", err,
		)
		s.emit(ctx, audit.Event{
			Action: string(audit.EventExtractionFailed),
			Reason: err.Error(),
		})
		return nil
	}

	lines := make([]Line, len(textLines))
	for i, tl := range textLines {
		lines[i] = Line{Text: tl.Text, Confidence: tl.Confidence}
	}
	span.SetAttributes(attribute.Int("extraction.lines", len(lines)))
	return lines
}

// callExtractor runs the backend and reports a panic inside it as an ordinary error.
func (s *Service) callExtractor(ctx context.Context, image []byte, mediaType string) (lines []ports.TextLine, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("text extractor panicked: %v", r)
		}
	}()
	return s.extractor.Extract(ctx, image, mediaType)
}

func (s *Service) logAudit(ctx context.Context, a *Assessment) {
	event := audit.EventAssessmentCompleted
	decision := string(a.RiskLevel)
	if a.Status == StatusIncompleteProfile {
		event = audit.EventAssessmentIncomplete
		decision = string(a.Status)
	}
	s.logger.InfoContext(ctx, string(event),
		"request_id", requestcontext.RequestID(ctx),
		"assessment_id", a.ID,
		"source", a.Source,
		"status", a.Status,
		"risk_level", a.RiskLevel,
		"confidence", a.Confidence,
		"log_type", "audit",
	)
	s.emit(ctx, audit.Event{
		Subject:  a.ID.String(),
		Action:   string(event),
		Decision: decision,
		Reason:   a.Reason,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", event.Action,
			"error", err,
		)
	}
}

func sourceOf(input Input) Source {
	if _, ok := input.(ExtractedLines); ok {
		return SourceImage
	}
	return SourceStructured
}
