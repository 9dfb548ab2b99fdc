package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"healthrisk/internal/profile/metrics"
	"healthrisk/internal/profile/ports"
	dErrors "healthrisk/pkg/domain-errors"
	"healthrisk/pkg/platform/audit"
	"healthrisk/pkg/platform/sentinel"
	"healthrisk/pkg/requestcontext"
)

// =============================================================================
// Profile Service Test Suite
// =============================================================================
// The service is the only place where the pure pipeline meets I/O, so these
// tests cover persistence, audit emission and extraction degradation.

type stubStore struct {
	mu      sync.Mutex
	saved   map[uuid.UUID]*Assessment
	saveErr error
	findErr error
}

func (s *stubStore) Save(_ context.Context, a *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[a.ID] = a
	return nil
}

func (s *stubStore) FindByID(_ context.Context, id uuid.UUID) (*Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	a, ok := s.saved[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a, nil
}

type stubExtractor struct {
	lines []ports.TextLine
	err   error
	calls int
}

func (e *stubExtractor) Extract(_ context.Context, _ []byte, _ string) ([]ports.TextLine, error) {
	e.calls++
	return e.lines, e.err
}

func (e *stubExtractor) Backend() string { return "stub" }

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, []byte, string) ([]ports.TextLine, error) {
	panic("decoder blew up")
}

func (panickingExtractor) Backend() string { return "broken" }

type recordingAuditor struct {
	events []audit.Event
	err    error
}

func (a *recordingAuditor) Emit(_ context.Context, event audit.Event) error {
	a.events = append(a.events, event)
	return a.err
}

type ServiceSuite struct {
	suite.Suite
	store     *stubStore
	extractor *stubExtractor
	auditor   *recordingAuditor
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = &stubStore{saved: map[uuid.UUID]*Assessment{}}
	s.extractor = &stubExtractor{}
	s.auditor = &recordingAuditor{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), s.now)

	var err error
	s.service, err = New(s.store,
		WithExtractor(s.extractor),
		WithAuditor(s.auditor),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "assessment store is required")
	})
}

// =============================================================================
// Analyze Tests
// =============================================================================

func (s *ServiceSuite) TestAnalyze() {
	s.Run("structured survey is scored and stored", func() {
		a, err := s.service.Analyze(s.ctx, StructuredSurvey{Age: 45, Smoker: false, Exercise: "rarely", Diet: "high sugar"})
		s.Require().NoError(err)

		s.NotEqual(uuid.Nil, a.ID)
		s.Equal(SourceStructured, a.Source)
		s.Equal(StatusOK, a.Status)
		s.Equal(RiskMedium, a.RiskLevel)
		s.Equal(45, a.Score)
		s.Equal([]Factor{FactorPoorDiet, FactorLowExercise}, a.Factors)
		s.Equal([]string{"Reduce sugar", "Walk 30 mins daily"}, a.Recommendations)
		s.Equal(1.0, a.Confidence)
		s.Equal(s.now, a.CreatedAt)

		stored, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a, stored)

		s.Equal(1.0, testutil.ToFloat64(s.metrics.Outcomes.WithLabelValues("ok", "medium")))
	})

	s.Run("completed assessment is audited", func() {
		s.auditor.events = nil
		a, err := s.service.Analyze(s.ctx, StructuredSurvey{Age: 61, Smoker: true, Exercise: "never", Diet: "processed"})
		s.Require().NoError(err)

		s.Require().Len(s.auditor.events, 1)
		event := s.auditor.events[0]
		s.Equal(string(audit.EventAssessmentCompleted), event.Action)
		s.Equal(a.ID.String(), event.Subject)
		s.Equal("high", event.Decision)
		s.Equal("req-1", event.RequestID)
	})

	s.Run("store failure does not fail the request", func() {
		s.store.saveErr = errors.New("connection refused")
		defer func() { s.store.saveErr = nil }()

		a, err := s.service.Analyze(s.ctx, StructuredSurvey{Age: 20, Exercise: "daily", Diet: "balanced"})
		s.Require().NoError(err)
		s.Equal(RiskLow, a.RiskLevel)
	})

	s.Run("audit failure does not fail the request", func() {
		s.auditor.err = errors.New("broker down")
		defer func() { s.auditor.err = nil }()

		_, err := s.service.Analyze(s.ctx, StructuredSurvey{Age: 20, Exercise: "daily", Diet: "balanced"})
		s.NoError(err)
	})

	s.Run("unknown input is rejected", func() {
		_, err := s.service.Analyze(s.ctx, unknownInput{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// AnalyzeImage Tests
// =============================================================================

func (s *ServiceSuite) TestAnalyzeImage() {
	s.Run("extracted text is analyzed", func() {
		s.extractor.lines = []ports.TextLine{
			{Text: "Age: 45", Confidence: 0.9},
			{Text: "Smoking: yes", Confidence: 0.8},
			{Text: "garbage line", Confidence: 0.95},
		}
		s.extractor.err = nil

		a, err := s.service.AnalyzeImage(s.ctx, []byte("png"), "image/png")
		s.Require().NoError(err)

		s.Equal(SourceImage, a.Source)
		s.Equal(StatusOK, a.Status)
		s.Equal([]Factor{FactorSmoking}, a.Factors)
		s.InDelta(0.85, a.Confidence, 1e-9)
	})

	s.Run("extraction failure degrades to incomplete profile", func() {
		s.extractor.lines = nil
		s.extractor.err = errors.New("ocr timeout")
		s.auditor.events = nil

		a, err := s.service.AnalyzeImage(s.ctx, []byte("png"), "image/png")
		s.Require().NoError(err)

		s.Equal(StatusIncompleteProfile, a.Status)
		s.Equal([]Field{FieldAge, FieldSmoker, FieldExercise, FieldDiet}, a.Missing)
		s.Zero(a.Confidence)

		s.Require().Len(s.auditor.events, 2)
		s.Equal(string(audit.EventExtractionFailed), s.auditor.events[0].Action)
		s.Equal(string(audit.EventAssessmentIncomplete), s.auditor.events[1].Action)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ExtractionFailures.WithLabelValues("stub")))
	})

	s.Run("extractor panic degrades to incomplete profile", func() {
		m := metrics.New(prometheus.NewRegistry())
		auditor := &recordingAuditor{}
		svc, err := New(s.store, WithExtractor(panickingExtractor{}), WithAuditor(auditor), WithMetrics(m))
		s.Require().NoError(err)

		var a *Assessment
		s.Require().NotPanics(func() {
			a, err = svc.AnalyzeImage(s.ctx, []byte{1}, "image/png")
		})
		s.Require().NoError(err)

		s.Equal(StatusIncompleteProfile, a.Status)
		s.Equal([]Field{FieldAge, FieldSmoker, FieldExercise, FieldDiet}, a.Missing)
		s.Require().Len(auditor.events, 2)
		s.Equal(string(audit.EventExtractionFailed), auditor.events[0].Action)
		s.Contains(auditor.events[0].Reason, "decoder blew up")
		s.Equal(1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("broken")))
	})

	s.Run("no extractor degrades to incomplete profile", func() {
		svc, err := New(s.store)
		s.Require().NoError(err)

		a, err := svc.AnalyzeImage(s.ctx, []byte("png"), "image/png")
		s.Require().NoError(err)
		s.Equal(StatusIncompleteProfile, a.Status)
	})
}

// =============================================================================
// Get Tests
// =============================================================================

func (s *ServiceSuite) TestGet() {
	s.Run("returns stored assessment", func() {
		a, err := s.service.Analyze(s.ctx, StructuredSurvey{Age: 45, Smoker: true, Exercise: "daily", Diet: "balanced"})
		s.Require().NoError(err)

		got, err := s.service.Get(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.ID, got.ID)
		s.Equal(a.Result(), got.Result())
	})

	s.Run("missing assessment is not found", func() {
		_, err := s.service.Get(s.ctx, uuid.New())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure is internal", func() {
		s.store.findErr = errors.New("timeout")
		defer func() { s.store.findErr = nil }()

		_, err := s.service.Get(s.ctx, uuid.New())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
