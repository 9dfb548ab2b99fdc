package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFactors(t *testing.T) {
	t.Run("all rules fire in fixed order", func(t *testing.T) {
		got := ExtractFactors(Answers{Smoker: ptr(true), Diet: ptr("processed"), Exercise: ptr("rarely")})
		assert.Equal(t, []Factor{FactorSmoking, FactorPoorDiet, FactorLowExercise}, got)
	})

	t.Run("absent fields never fire", func(t *testing.T) {
		got := ExtractFactors(Answers{Age: ptr(70)})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("non-smoker with healthy habits", func(t *testing.T) {
		got := ExtractFactors(Answers{Smoker: ptr(false), Diet: ptr("balanced"), Exercise: ptr("daily")})
		assert.Empty(t, got)
	})

	t.Run("values matched exactly", func(t *testing.T) {
		got := ExtractFactors(Answers{Diet: ptr(" High Sugar "), Exercise: ptr("INFREQUENTLY")})
		assert.Empty(t, got)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		factors []Factor
		score   int
		level   RiskLevel
	}{
		{"diet and exercise", []Factor{FactorPoorDiet, FactorLowExercise}, 45, RiskMedium},
		{"sixty is not high", []Factor{FactorSmoking, FactorPoorDiet}, 60, RiskMedium},
		{"all three", []Factor{FactorSmoking, FactorPoorDiet, FactorLowExercise}, 80, RiskHigh},
		{"no factors", nil, 0, RiskLow},
		{"twenty is low", []Factor{FactorLowExercise}, 20, RiskLow},
		{"thirty five is medium", []Factor{FactorSmoking}, 35, RiskMedium},
		{"unknown factor weighs nothing", []Factor{"sedentary job", FactorPoorDiet}, 25, RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.factors)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, len(tt.factors), len(got.Rationale))
		})
	}
}

func TestRecommend(t *testing.T) {
	t.Run("follows factor order", func(t *testing.T) {
		recs := Recommend(Classify([]Factor{FactorLowExercise, FactorSmoking}))
		assert.Equal(t, []string{"Walk 30 mins daily", "Quit smoking"}, recs.Recommendations)
		assert.Equal(t, StatusOK, recs.Status)
		assert.Equal(t, RiskMedium, recs.RiskLevel)
	})

	t.Run("factors without advice skipped", func(t *testing.T) {
		recs := Recommend(RiskProfile{Rationale: []Factor{"sedentary job", FactorPoorDiet}})
		assert.Equal(t, []string{"Reduce sugar"}, recs.Recommendations)
		assert.Equal(t, []Factor{"sedentary job", FactorPoorDiet}, recs.Factors)
	})

	t.Run("empty profile gives empty list", func(t *testing.T) {
		recs := Recommend(Classify(nil))
		assert.NotNil(t, recs.Recommendations)
		assert.Empty(t, recs.Recommendations)
	})
}

func TestEvaluate(t *testing.T) {
	t.Run("structured survey produces recommendations", func(t *testing.T) {
		eval, err := Evaluate(StructuredSurvey{Age: 45, Smoker: true, Exercise: "never", Diet: "high sugar"})
		require.NoError(t, err)

		recs, ok := eval.Result.(*Recommendations)
		require.True(t, ok)
		assert.Equal(t, RiskHigh, recs.RiskLevel)
		assert.Equal(t, []Factor{FactorSmoking, FactorPoorDiet, FactorLowExercise}, recs.Factors)
		assert.Equal(t, []string{"Quit smoking", "Reduce sugar", "Walk 30 mins daily"}, recs.Recommendations)
		assert.Equal(t, 1.0, recs.Confidence)
		require.NotNil(t, eval.Profile)
		assert.Equal(t, 80, eval.Profile.Score)
	})

	t.Run("structured values are not rewritten", func(t *testing.T) {
		eval, err := Evaluate(StructuredSurvey{Age: 45, Smoker: true, Exercise: " Rarely ", Diet: "High Sugar"})
		require.NoError(t, err)

		recs, ok := eval.Result.(*Recommendations)
		require.True(t, ok)
		assert.Equal(t, RiskMedium, recs.RiskLevel)
		assert.Equal(t, []Factor{FactorSmoking}, recs.Factors)
		require.NotNil(t, eval.Profile)
		assert.Equal(t, 35, eval.Profile.Score)
		assert.Equal(t, "High Sugar", *eval.Normalized.Answers.Diet)
	})

	t.Run("extracted lines carry confidence", func(t *testing.T) {
		eval, err := Evaluate(ExtractedLines{Lines: []Line{
			{Text: "Age: 45", Confidence: 0.9},
			{Text: "Smoking: yes", Confidence: 0.8},
			{Text: "garbage line", Confidence: 0.95},
		}})
		require.NoError(t, err)

		recs, ok := eval.Result.(*Recommendations)
		require.True(t, ok)
		assert.Equal(t, []Factor{FactorSmoking}, recs.Factors)
		assert.Equal(t, RiskMedium, recs.RiskLevel)
		assert.InDelta(t, 0.85, recs.Confidence, 1e-9)
	})

	t.Run("sparse image stops at guardrail", func(t *testing.T) {
		eval, err := Evaluate(ExtractedLines{Lines: []Line{{Text: "Age: 45", Confidence: 0.9}}})
		require.NoError(t, err)

		incomplete, ok := eval.Result.(*IncompleteProfile)
		require.True(t, ok)
		assert.Equal(t, StatusIncompleteProfile, incomplete.ResultStatus())
		assert.Equal(t, ">50% fields missing. Missing: smoker, exercise, diet", incomplete.Reason)
		assert.Nil(t, eval.Profile)
	})

	t.Run("unknown input is a validation failure", func(t *testing.T) {
		_, err := Evaluate(unknownInput{})
		assert.Error(t, err)
	})

	t.Run("repeated runs are identical", func(t *testing.T) {
		in := StructuredSurvey{Age: 33, Smoker: false, Exercise: "Rarely", Diet: "processed"}
		first, err := Evaluate(in)
		require.NoError(t, err)
		for range 5 {
			again, err := Evaluate(in)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}
