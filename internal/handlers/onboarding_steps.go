package handlers

import (
	"fmt"
	"time"

	"backend/internal/models"
)

const (
	minSignupAge  = 14
	minNameLength = 2
	maxNameLength = 50
)

// computeOnboardingStep derives the next required onboarding action from the
// member's stored fields. Evaluation order is fixed; the first unmet
// condition wins. COMPLETED status short-circuits so finished members never
// re-evaluate.
func computeOnboardingStep(member models.Member) models.OnboardingStep {
	if member.OnboardingStatus == models.OnboardingCompleted {
		return models.StepCompleted
	}
	if !member.TermsAgreed {
		return models.StepTerms
	}
	if member.BirthDate == nil {
		return models.StepBirthDate
	}
	if member.Gender == nil {
		return models.StepGender
	}
	return models.StepCompleted
}

// onboardingStepAllows reports whether a mutation bound to required may run
// while the member's stored step is current. Re-editing after completion is
// always allowed.
func onboardingStepAllows(current, required models.OnboardingStep) bool {
	return current == required || current == models.StepCompleted
}

// validateBirthDate rejects future dates and members younger than 14 years
// at the given reference date. Callers pass time.Now() in production and a
// fixed date in tests.
func validateBirthDate(birthDate, today time.Time) (string, error) {
	if birthDate.After(today) {
		return CodeInvalidBirthDate, fmt.Errorf("birth date %s is in the future", birthDate.Format("2006-01-02"))
	}
	minAllowed := today.AddDate(-minSignupAge, 0, 0)
	if birthDate.After(minAllowed) {
		return CodeUnderAge, fmt.Errorf("must be at least %d years old", minSignupAge)
	}
	return "", nil
}

func validGender(gender models.MemberGender) bool {
	switch gender {
	case models.GenderMale, models.GenderFemale, models.GenderNotSelected:
		return true
	}
	return false
}

func validateDisplayName(name string) error {
	length := len([]rune(name))
	if length < minNameLength || length > maxNameLength {
		return fmt.Errorf("name must be %d-%d characters, got %d", minNameLength, maxNameLength, length)
	}
	return nil
}
