package profile

// ExtractFactors converts canonical answers into risk factors.
// Values are matched exactly; extracted text is lower-cased when it is parsed, structured
// answers are not.
// Rules run in a fixed order (smoking, diet, exercise) and each fires independently;
// an absent field never fires its rule.
func ExtractFactors(answers Answers) []Factor {
	factors := make([]Factor, 0, 3)

	// Rule 1: active smoker
	if answers.Smoker != nil && *answers.Smoker {
		factors = append(factors, FactorSmoking)
	}

	// Rule 2: diet dominated by sugar, fat or processed food
	if answers.Diet != nil && isPoorDiet(*answers.Diet) {
		factors = append(factors, FactorPoorDiet)
	}

	// Rule 3: little or no regular activity
	if answers.Exercise != nil && isLowExercise(*answers.Exercise) {
		factors = append(factors, FactorLowExercise)
	}

	return factors
}

func isPoorDiet(diet string) bool {
	switch diet {
	case "high sugar", "processed", "high-fat":
		return true
	default:
		return false
	}
}

func isLowExercise(exercise string) bool {
	switch exercise {
	case "rarely", "never", "infrequently":
		return true
	default:
		return false
	}
}
