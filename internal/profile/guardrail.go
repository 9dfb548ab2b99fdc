package profile

import "fmt"

// CheckCompleteness rejects answer records missing more than half of the required
// fields. It returns nil when the record may proceed.
//
// Presence is literal: smoker=false, age=0 and diet="" all count as answered.
func CheckCompleteness(answers Answers) *IncompleteProfile {
	required := RequiredFields()
	var missing []Field
	for _, f := range required {
		if !answers.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing)*2 <= len(required) {
		return nil
	}
	return &IncompleteProfile{
		Status:  StatusIncompleteProfile,
		Reason:  fmt.Sprintf(">50%% fields missing. Missing: %s", joinFields(missing)),
		Missing: missing,
	}
}
