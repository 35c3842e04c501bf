package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemberGender string

const (
	GenderMale        MemberGender = "MALE"
	GenderFemale      MemberGender = "FEMALE"
	GenderNotSelected MemberGender = "NOT_SELECTED"
)

type OnboardingStatus string

const (
	OnboardingNotStarted OnboardingStatus = "NOT_STARTED"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

type OnboardingStep string

const (
	StepTerms     OnboardingStep = "TERMS"
	StepBirthDate OnboardingStep = "BIRTH_DATE"
	StepGender    OnboardingStep = "GENDER"
	StepCompleted OnboardingStep = "COMPLETED"
)

// Member is the application user account, created on first successful
// federated sign-in and filled in through the onboarding endpoints.
type Member struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	Name             string             `bson:"name" json:"name"`
	PictureURL       string             `bson:"pictureUrl,omitempty" json:"pictureUrl,omitempty"`
	Provider         string             `bson:"provider,omitempty" json:"provider,omitempty"`
	Gender           *MemberGender      `bson:"gender,omitempty" json:"gender,omitempty"`
	BirthDate        *time.Time         `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	TermsAgreed      bool               `bson:"termsAgreed" json:"isServiceTermsAndPrivacyAgreed"`
	MarketingAgreed  bool               `bson:"marketingAgreed" json:"isMarketingAgreed"`
	OnboardingStatus OnboardingStatus   `bson:"onboardingStatus" json:"onboardingStatus"`
	OnboardingStep   OnboardingStep     `bson:"onboardingStep" json:"onboardingStep"`
	FcmToken         string             `bson:"fcmToken,omitempty" json:"-"`
	DeviceType       string             `bson:"deviceType,omitempty" json:"-"`
	DeviceID         string             `bson:"deviceId,omitempty" json:"-"`
	IsDeleted        bool               `bson:"isDeleted" json:"-"`
	DeletedAt        *time.Time         `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
