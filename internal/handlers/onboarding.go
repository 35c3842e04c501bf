package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type AgreeTermsRequest struct {
	ServiceTermsAndPrivacyAgreed *bool `json:"isServiceTermsAndPrivacyAgreed" binding:"required"`
	MarketingAgreed              *bool `json:"isMarketingAgreed"`
}

type UpdateBirthDateRequest struct {
	BirthDate string `json:"birthDate" binding:"required"` // YYYY-MM-DD
}

type UpdateGenderRequest struct {
	Gender string `json:"gender" binding:"required"`
}

type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"required"`
	Gender    string `json:"gender" binding:"required"`
	BirthDate string `json:"birthDate" binding:"required"`
}

// loadMemberForOnboarding fetches the authed member and enforces the stored
// step guard for the given required step.
func loadMemberForOnboarding(c *gin.Context, ctx context.Context, db *mongo.Database, route string, required models.OnboardingStep) (models.Member, bool) {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, CodeMemberNotFound, "member not resolved")
		return models.Member{}, false
	}

	member, err := findLiveMember(ctx, db, memberID)
	if err == errMemberNotFound {
		respondWithError(c, http.StatusNotFound, route, CodeMemberNotFound, "member not found")
		return models.Member{}, false
	}
	if err == errMemberWithdrawn {
		respondWithError(c, http.StatusNotFound, route, CodeMemberWithdrawn, "member already withdrawn")
		return models.Member{}, false
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
		return models.Member{}, false
	}

	if !onboardingStepAllows(member.OnboardingStep, required) {
		log.Printf("[%s] step order violation: memberId=%s current=%s required=%s",
			route, member.ID.Hex(), member.OnboardingStep, required)
		respondWithError(c, http.StatusConflict, route, CodeInvalidOnboardingStep,
			"current onboarding step is "+string(member.OnboardingStep))
		return models.Member{}, false
	}

	return member, true
}

func markInProgress(member *models.Member) {
	if member.OnboardingStatus == models.OnboardingNotStarted {
		member.OnboardingStatus = models.OnboardingInProgress
	}
}

// AgreeTerms handles PATCH /api/members/me/terms.
func AgreeTerms(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "MEMBERS"
		defer handlePanic(c, route)

		var req AgreeTermsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		member, ok := loadMemberForOnboarding(c, ctx, db, route, models.StepTerms)
		if !ok {
			return
		}

		if !*req.ServiceTermsAndPrivacyAgreed {
			respondWithError(c, http.StatusBadRequest, route, CodeTermsNotAgreed,
				"service terms and privacy consent is required")
			return
		}

		member.TermsAgreed = true
		member.MarketingAgreed = req.MarketingAgreed != nil && *req.MarketingAgreed
		markInProgress(&member)

		if _, err := advanceOnboarding(ctx, db, &member); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}

		log.Printf("[%s] terms agreed: memberId=%s currentStep=%s", route, member.ID.Hex(), member.OnboardingStep)
		c.JSON(http.StatusOK, onboardingResponse(member))
	}
}

// SetBirthDate handles PATCH /api/members/me/birth-date.
func SetBirthDate(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "MEMBERS"
		defer handlePanic(c, route)

		var req UpdateBirthDateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		birthDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.BirthDate))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, CodeInvalidBirthDate, "birthDate must be YYYY-MM-DD")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		member, ok := loadMemberForOnboarding(c, ctx, db, route, models.StepBirthDate)
		if !ok {
			return
		}

		if code, err := validateBirthDate(birthDate, time.Now()); err != nil {
			respondWithError(c, http.StatusBadRequest, route, code, err.Error())
			return
		}

		member.BirthDate = &birthDate
		markInProgress(&member)

		if _, err := advanceOnboarding(ctx, db, &member); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}

		log.Printf("[%s] birth date set: memberId=%s currentStep=%s", route, member.ID.Hex(), member.OnboardingStep)
		c.JSON(http.StatusOK, onboardingResponse(member))
	}
}

// SetGender handles PATCH /api/members/me/gender.
func SetGender(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "MEMBERS"
		defer handlePanic(c, route)

		var req UpdateGenderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		gender := models.MemberGender(strings.ToUpper(strings.TrimSpace(req.Gender)))
		if !validGender(gender) {
			respondWithError(c, http.StatusBadRequest, route, CodeInvalidGender,
				"gender must be MALE, FEMALE or NOT_SELECTED")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		member, ok := loadMemberForOnboarding(c, ctx, db, route, models.StepGender)
		if !ok {
			return
		}

		member.Gender = &gender
		markInProgress(&member)

		if _, err := advanceOnboarding(ctx, db, &member); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}

		log.Printf("[%s] gender set: memberId=%s currentStep=%s", route, member.ID.Hex(), member.OnboardingStep)
		c.JSON(http.StatusOK, onboardingResponse(member))
	}
}

// UpdateProfile handles PUT /api/members/me/profile. Unlike the step
// endpoints it requires onboarding to be finished already.
func UpdateProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "MEMBERS"
		defer handlePanic(c, route)

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		memberID, ok := memberIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, CodeMemberNotFound, "member not resolved")
			return
		}

		member, err := findLiveMember(ctx, db, memberID)
		if err == errMemberNotFound || err == errMemberWithdrawn {
			respondWithError(c, http.StatusNotFound, route, CodeMemberNotFound, "member not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}

		if member.OnboardingStep != models.StepCompleted {
			respondWithError(c, http.StatusConflict, route, CodeInvalidOnboardingStep,
				"onboarding is not completed")
			return
		}

		name := strings.TrimSpace(req.Name)
		if err := validateDisplayName(name); err != nil {
			respondWithError(c, http.StatusBadRequest, route, CodeInvalidNameLength, err.Error())
			return
		}

		gender := models.MemberGender(strings.ToUpper(strings.TrimSpace(req.Gender)))
		if !validGender(gender) {
			respondWithError(c, http.StatusBadRequest, route, CodeInvalidGender,
				"gender must be MALE, FEMALE or NOT_SELECTED")
			return
		}

		birthDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.BirthDate))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, CodeInvalidBirthDate, "birthDate must be YYYY-MM-DD")
			return
		}
		if code, err := validateBirthDate(birthDate, time.Now()); err != nil {
			respondWithError(c, http.StatusBadRequest, route, code, err.Error())
			return
		}

		// Name uniqueness, excluding the member itself.
		count, err := db.Collection("members").CountDocuments(ctx, bson.M{
			"name":      name,
			"_id":       bson.M{"$ne": member.ID},
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, route, CodeNameExists, "name already in use")
			return
		}

		member.Name = name
		member.Gender = &gender
		member.BirthDate = &birthDate

		if _, err := advanceOnboarding(ctx, db, &member); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}

		log.Printf("[%s] profile updated: memberId=%s name=%s", route, member.ID.Hex(), member.Name)
		c.JSON(http.StatusOK, onboardingResponse(member))
	}
}

// CheckNameAvailability handles GET /members/check-name?name=.
func CheckNameAvailability(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "MEMBERS"
		defer handlePanic(c, route)

		name := strings.TrimSpace(c.Query("name"))
		if err := validateDisplayName(name); err != nil {
			respondWithError(c, http.StatusBadRequest, route, CodeInvalidNameLength, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("members").CountDocuments(ctx, bson.M{
			"name":      name,
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"name": name, "isAvailable": count == 0})
	}
}
