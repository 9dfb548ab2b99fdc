package handler

import (
	"time"

	"healthrisk/internal/profile"
)

// RecommendationsResponse is the body of a successful analysis.
type RecommendationsResponse struct {
	RiskLevel       string   `json:"risk_level"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
	Status          string   `json:"status"`
	Confidence      float64  `json:"confidence"`
}

// IncompleteProfileResponse is the body returned when too many answers are missing.
type IncompleteProfileResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// AssessmentResponse is the HTTP response for GET /assessments/{id}.
type AssessmentResponse struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	RiskLevel       string    `json:"risk_level,omitempty"`
	Score           int       `json:"score"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
	Reason          string    `json:"reason,omitempty"`
	Missing         []string  `json:"missing,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FromResult converts a pipeline result to its HTTP body.
func FromResult(result profile.Result) any {
	switch r := result.(type) {
	case *profile.Recommendations:
		return &RecommendationsResponse{
			RiskLevel:       string(r.RiskLevel),
			Factors:         factorNames(r.Factors),
			Recommendations: nonNil(r.Recommendations),
			Status:          string(r.Status),
			Confidence:      r.Confidence,
		}
	case *profile.IncompleteProfile:
		return &IncompleteProfileResponse{
			Status: string(r.Status),
			Reason: r.Reason,
		}
	default:
		return nil
	}
}

// FromAssessment converts a stored assessment to an HTTP response.
func FromAssessment(a *profile.Assessment) *AssessmentResponse {
	resp := &AssessmentResponse{
		ID:              a.ID.String(),
		Source:          string(a.Source),
		Status:          string(a.Status),
		RiskLevel:       string(a.RiskLevel),
		Score:           a.Score,
		Factors:         factorNames(a.Factors),
		Recommendations: nonNil(a.Recommendations),
		Confidence:      a.Confidence,
		Reason:          a.Reason,
		CreatedAt:       a.CreatedAt,
	}
	for _, f := range a.Missing {
		resp.Missing = append(resp.Missing, string(f))
	}
	return resp
}

func factorNames(factors []profile.Factor) []string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = string(f)
	}
	return names
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
