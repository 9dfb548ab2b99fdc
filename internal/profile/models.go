package profile

import "strings"

// Field names a recognized survey answer. Canonical answers never carry any other key.
type Field string

const (
	FieldAge      Field = "age"
	FieldSmoker   Field = "smoker"
	FieldExercise Field = "exercise"
	FieldDiet     Field = "diet"
)

// RequiredFields returns the fields the guardrail counts, in reporting order.
// A fresh slice is returned on every call so callers cannot mutate the table.
func RequiredFields() []Field {
	return []Field{FieldAge, FieldSmoker, FieldExercise, FieldDiet}
}

// Answers is the canonical answer record. A nil field is absent, which is distinct
// from a present zero value such as smoker=false or diet="".
type Answers struct {
	Age      *int
	Smoker   *bool
	Exercise *string
	Diet     *string
}

// Has reports whether the field is present in the record.
func (a Answers) Has(f Field) bool {
	switch f {
	case FieldAge:
		return a.Age != nil
	case FieldSmoker:
		return a.Smoker != nil
	case FieldExercise:
		return a.Exercise != nil
	case FieldDiet:
		return a.Diet != nil
	default:
		return false
	}
}

// Factor is a standardized risk indicator derived from canonical answers.
type Factor string

const (
	FactorSmoking     Factor = "smoking"
	FactorPoorDiet    Factor = "poor diet"
	FactorLowExercise Factor = "low exercise"
)

// Weight is the factor's contribution to the risk score. Unknown factors weigh nothing.
func (f Factor) Weight() int {
	switch f {
	case FactorSmoking:
		return 35
	case FactorPoorDiet:
		return 25
	case FactorLowExercise:
		return 20
	default:
		return 0
	}
}

// Recommendation returns the advice attached to the factor, if any.
func (f Factor) Recommendation() (string, bool) {
	switch f {
	case FactorSmoking:
		return "Quit smoking", true
	case FactorPoorDiet:
		return "Reduce sugar", true
	case FactorLowExercise:
		return "Walk 30 mins daily", true
	default:
		return "", false
	}
}

// RiskLevel is the discrete bucket a score falls into.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Status tags which outcome a result represents.
type Status string

const (
	StatusOK                Status = "ok"
	StatusIncompleteProfile Status = "incomplete_profile"
)

// RiskProfile is the scored view of a factor list.
type RiskProfile struct {
	Score     int
	Level     RiskLevel
	Rationale []Factor
}

// Result is either *Recommendations or *IncompleteProfile.
type Result interface {
	ResultStatus() Status
	isResult()
}

// Recommendations is the successful pipeline outcome.
type Recommendations struct {
	RiskLevel       RiskLevel
	Factors         []Factor
	Recommendations []string
	Status          Status
	Confidence      float64
}

func (*Recommendations) ResultStatus() Status { return StatusOK }
func (*Recommendations) isResult()            {}

// IncompleteProfile is returned instead of recommendations when too many required
// fields are missing. It is a normal outcome, not an error.
type IncompleteProfile struct {
	Status  Status
	Reason  string
	Missing []Field
}

func (*IncompleteProfile) ResultStatus() Status { return StatusIncompleteProfile }
func (*IncompleteProfile) isResult()            {}

func joinFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
