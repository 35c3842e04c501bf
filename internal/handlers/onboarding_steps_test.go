package handlers

import (
	"testing"
	"time"

	"backend/internal/models"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestComputeOnboardingStepOrder(t *testing.T) {
	birth := date(1995, 6, 1)
	gender := models.GenderFemale

	cases := []struct {
		name   string
		member models.Member
		want   models.OnboardingStep
	}{
		{
			name:   "nothing set",
			member: models.Member{OnboardingStatus: models.OnboardingNotStarted},
			want:   models.StepTerms,
		},
		{
			name:   "terms agreed only",
			member: models.Member{OnboardingStatus: models.OnboardingInProgress, TermsAgreed: true},
			want:   models.StepBirthDate,
		},
		{
			name: "terms and birth date",
			member: models.Member{
				OnboardingStatus: models.OnboardingInProgress,
				TermsAgreed:      true,
				BirthDate:        &birth,
			},
			want: models.StepGender,
		},
		{
			name: "all fields set",
			member: models.Member{
				OnboardingStatus: models.OnboardingInProgress,
				TermsAgreed:      true,
				BirthDate:        &birth,
				Gender:           &gender,
			},
			want: models.StepCompleted,
		},
		{
			name: "completed status short-circuits even with empty fields",
			member: models.Member{
				OnboardingStatus: models.OnboardingCompleted,
			},
			want: models.StepCompleted,
		},
	}

	for _, tc := range cases {
		got := computeOnboardingStep(tc.member)
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
		// Pure: a second call without mutation yields the same step.
		if again := computeOnboardingStep(tc.member); again != got {
			t.Fatalf("%s: second call returned %s after %s", tc.name, again, got)
		}
	}
}

func TestOnboardingStepAllows(t *testing.T) {
	if onboardingStepAllows(models.StepTerms, models.StepGender) {
		t.Fatal("setGender must be rejected while stored step is TERMS")
	}
	if !onboardingStepAllows(models.StepGender, models.StepGender) {
		t.Fatal("setGender must be allowed at GENDER step")
	}
	if !onboardingStepAllows(models.StepCompleted, models.StepGender) {
		t.Fatal("re-edit must be allowed after completion")
	}
}

func TestValidateBirthDateBoundaries(t *testing.T) {
	today := date(2024, 3, 15)

	// Exactly 14 years old today: allowed.
	if code, err := validateBirthDate(date(2010, 3, 15), today); err != nil {
		t.Fatalf("14th birthday today must pass, got %s: %v", code, err)
	}

	// One day short of 14 years: rejected as underage.
	code, err := validateBirthDate(date(2010, 3, 16), today)
	if err == nil {
		t.Fatal("13 years 364 days must be rejected")
	}
	if code != CodeUnderAge {
		t.Fatalf("expected %s, got %s", CodeUnderAge, code)
	}

	// Future date: rejected as invalid, not underage.
	code, err = validateBirthDate(date(2024, 3, 16), today)
	if err == nil {
		t.Fatal("future birth date must be rejected")
	}
	if code != CodeInvalidBirthDate {
		t.Fatalf("expected %s, got %s", CodeInvalidBirthDate, code)
	}
}

func TestValidGender(t *testing.T) {
	for _, g := range []models.MemberGender{models.GenderMale, models.GenderFemale, models.GenderNotSelected} {
		if !validGender(g) {
			t.Fatalf("expected %s to be valid", g)
		}
	}
	if validGender(models.MemberGender("OTHER")) {
		t.Fatal("unknown gender value must be invalid")
	}
}

func TestValidateDisplayName(t *testing.T) {
	if err := validateDisplayName("ab"); err != nil {
		t.Fatalf("2-char name must pass: %v", err)
	}
	if err := validateDisplayName("a"); err == nil {
		t.Fatal("1-char name must fail")
	}
	long := make([]rune, 51)
	for i := range long {
		long[i] = 'x'
	}
	if err := validateDisplayName(string(long)); err == nil {
		t.Fatal("51-char name must fail")
	}
}
