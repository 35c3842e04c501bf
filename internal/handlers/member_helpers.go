package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

var (
	errMemberNotFound  = errors.New("member not found")
	errMemberWithdrawn = errors.New("member already withdrawn")
)

func memberIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("memberId")
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}

// requireMemberID resolves the authed member id or answers 401 itself.
func requireMemberID(c *gin.Context, route string) (primitive.ObjectID, bool) {
	id, ok := memberIDFromContext(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, CodeMemberNotFound, "member not resolved")
	}
	return id, ok
}

// findLiveMember loads a member by id, distinguishing missing from withdrawn.
func findLiveMember(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (models.Member, error) {
	var member models.Member
	err := db.Collection("members").FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, errMemberNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	if member.IsDeleted {
		return models.Member{}, errMemberWithdrawn
	}
	return member, nil
}

// advanceOnboarding recomputes the member's step from its fields, mirrors the
// result onto the struct and persists step, status and the mutated profile
// fields in one update.
func advanceOnboarding(ctx context.Context, db *mongo.Database, member *models.Member) (models.OnboardingStep, error) {
	step := computeOnboardingStep(*member)
	member.OnboardingStep = step
	if step == models.StepCompleted {
		member.OnboardingStatus = models.OnboardingCompleted
	}
	member.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":             member.Name,
		"gender":           member.Gender,
		"birthDate":        member.BirthDate,
		"termsAgreed":      member.TermsAgreed,
		"marketingAgreed":  member.MarketingAgreed,
		"onboardingStep":   member.OnboardingStep,
		"onboardingStatus": member.OnboardingStatus,
		"updatedAt":        member.UpdatedAt,
	}}
	if _, err := db.Collection("members").UpdateByID(ctx, member.ID, update); err != nil {
		return "", err
	}
	return step, nil
}

func onboardingResponse(member models.Member) gin.H {
	return gin.H{
		"currentStep":      member.OnboardingStep,
		"onboardingStatus": member.OnboardingStatus,
		"member":           member,
	}
}
