package handler

import (
	"strings"

	"healthrisk/internal/profile"
	dErrors "healthrisk/pkg/domain-errors"
)

// AnalyzeRequest is the HTTP request body for JSON submissions to POST /analyze.
// Pointer fields distinguish an omitted answer from a zero value.
type AnalyzeRequest struct {
	Age      *int    `json:"age"`
	Smoker   *bool   `json:"smoker"`
	Exercise *string `json:"exercise"`
	Diet     *string `json:"diet"`
}

// Validate checks the request is a complete survey.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AnalyzeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Required fields
	var missing []string
	if r.Age == nil {
		missing = append(missing, "age")
	}
	if r.Smoker == nil {
		missing = append(missing, "smoker")
	}
	if r.Exercise == nil {
		missing = append(missing, "exercise")
	}
	if r.Diet == nil {
		missing = append(missing, "diet")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(missing, ", ")+" required")
	}
	return nil
}

// ToInput converts a validated request into pipeline input.
func (r *AnalyzeRequest) ToInput() profile.StructuredSurvey {
	return profile.StructuredSurvey{
		Age:      *r.Age,
		Smoker:   *r.Smoker,
		Exercise: *r.Exercise,
		Diet:     *r.Diet,
	}
}
