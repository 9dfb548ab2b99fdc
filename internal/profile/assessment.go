package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source identifies how a survey reached the service.
type Source string

const (
	SourceStructured Source = "structured"
	SourceImage      Source = "image"
)

// Assessment is a persisted pipeline outcome. RiskLevel, Score, Factors and
// Recommendations are only set when Status is StatusOK; Reason and Missing only
// when it is StatusIncompleteProfile.
type Assessment struct {
	ID              uuid.UUID `json:"id"`
	Source          Source    `json:"source"`
	Status          Status    `json:"status"`
	RiskLevel       RiskLevel `json:"risk_level,omitempty"`
	Score           int       `json:"score"`
	Factors         []Factor  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
	Reason          string    `json:"reason,omitempty"`
	Missing         []Field   `json:"missing,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// AssessmentStore persists assessments.
type AssessmentStore interface {
	Save(ctx context.Context, a *Assessment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
}

func newAssessment(id uuid.UUID, source Source, eval Evaluation, now time.Time) *Assessment {
	a := &Assessment{
		ID:              id,
		Source:          source,
		Status:          eval.Result.ResultStatus(),
		Factors:         []Factor{},
		Recommendations: []string{},
		Confidence:      eval.Normalized.Confidence,
		CreatedAt:       now,
	}
	switch r := eval.Result.(type) {
	case *Recommendations:
		a.RiskLevel = r.RiskLevel
		a.Factors = append(a.Factors, r.Factors...)
		a.Recommendations = append(a.Recommendations, r.Recommendations...)
		if eval.Profile != nil {
			a.Score = eval.Profile.Score
		}
	case *IncompleteProfile:
		a.Reason = r.Reason
		a.Missing = append([]Field{}, r.Missing...)
	}
	return a
}

// Result rebuilds the outcome the caller originally received.
func (a *Assessment) Result() Result {
	if a.Status == StatusIncompleteProfile {
		return &IncompleteProfile{
			Status:  StatusIncompleteProfile,
			Reason:  a.Reason,
			Missing: append([]Field{}, a.Missing...),
		}
	}
	return &Recommendations{
		RiskLevel:       a.RiskLevel,
		Factors:         append([]Factor{}, a.Factors...),
		Recommendations: append([]string{}, a.Recommendations...),
		Status:          StatusOK,
		Confidence:      a.Confidence,
	}
}
