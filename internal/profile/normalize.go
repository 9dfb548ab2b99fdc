package profile

import (
	"math"
	"strconv"
	"strings"

	dErrors "healthrisk/pkg/domain-errors"
)

// keySeparator splits a recognized line into key and value.
const keySeparator = ":"

// keyStripper removes the characters OCR tends to scatter through labels
// ("Smo-king", "Exer cise").
var keyStripper = strings.NewReplacer(" ", "", "-", "")

// Normalized is the Normalizer's output: canonical answers plus how much of the input
// was interpreted, and any matched lines whose value had to be dropped.
type Normalized struct {
	Answers    Answers
	Confidence float64
	Dropped    []DroppedLine
}

// DroppedLine records a line whose key was recognized but whose value was not usable.
type DroppedLine struct {
	Field Field
	Value string
}

// Normalize maps raw input into canonical answers.
// This is pure domain logic - no I/O, no side effects.
//
// Structured surveys are taken whole and unmodified with confidence 1. Extracted lines are parsed
// line by line; confidence is the mean of the per-line confidence of every line that
// set a field, or 0 when none did.
func Normalize(input Input) (Normalized, error) {
	switch in := input.(type) {
	case StructuredSurvey:
		return normalizeStructured(in), nil
	case ExtractedLines:
		return normalizeLines(in.Lines), nil
	default:
		return Normalized{}, dErrors.New(dErrors.CodeValidation, "unsupported survey input")
	}
}

func normalizeStructured(in StructuredSurvey) Normalized {
	age := in.Age
	smoker := in.Smoker
	exercise := in.Exercise
	diet := in.Diet
	return Normalized{
		Answers: Answers{
			Age:      &age,
			Smoker:   &smoker,
			Exercise: &exercise,
			Diet:     &diet,
		},
		Confidence: 1.0,
	}
}

func normalizeLines(lines []Line) Normalized {
	var (
		out   Normalized
		sum   float64
		count int
	)
	for _, line := range lines {
		rawKey, rawValue, ok := strings.Cut(line.Text, keySeparator)
		if !ok {
			continue
		}
		field, ok := matchKey(normalizeKey(rawKey))
		if !ok {
			continue
		}
		value := normalizeValue(rawValue)

		switch field {
		case FieldAge:
			age, err := strconv.Atoi(value)
			if err != nil {
				out.Dropped = append(out.Dropped, DroppedLine{Field: FieldAge, Value: value})
				continue
			}
			out.Answers.Age = &age
		case FieldSmoker:
			smoker := isAffirmative(value)
			out.Answers.Smoker = &smoker
		case FieldExercise:
			out.Answers.Exercise = &value
		case FieldDiet:
			out.Answers.Diet = &value
		}
		sum += clampUnit(line.Confidence)
		count++
	}
	if count > 0 {
		out.Confidence = clampUnit(sum / float64(count))
	}
	return out
}

func normalizeKey(raw string) string {
	return keyStripper.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

func normalizeValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// matchKey resolves a normalized label to the field it answers.
func matchKey(key string) (Field, bool) {
	switch key {
	case "age":
		return FieldAge, true
	case "smoker", "smoking":
		return FieldSmoker, true
	case "exercise", "activity":
		return FieldExercise, true
	case "diet", "food":
		return FieldDiet, true
	default:
		return "", false
	}
}

func isAffirmative(value string) bool {
	switch value {
	case "yes", "true", "y", "1":
		return true
	default:
		return false
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
