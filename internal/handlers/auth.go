package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/identity"
	"backend/internal/models"
)

type SignInRequest struct {
	IdToken    string `json:"idToken" binding:"required"`
	FcmToken   string `json:"fcmToken"`
	DeviceType string `json:"deviceType"`
	DeviceID   string `json:"deviceId"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// SignIn verifies a federated identity token and signs the member in,
// creating the account on first contact. New members start onboarding
// from scratch with a generated nickname.
func SignIn(db *mongo.Database, verifier identity.Verifier, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(req.IdToken))
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrTokenExpired):
				respondWithError(c, http.StatusUnauthorized, "AUTH", CodeTokenExpired, "identity token expired")
			case errors.Is(err, identity.ErrTokenInvalid):
				respondWithError(c, http.StatusUnauthorized, "AUTH", CodeTokenInvalid, "identity token invalid")
			default:
				respondWithError(c, http.StatusUnauthorized, "AUTH", CodeTokenUnverifiable, "identity token could not be verified")
			}
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		email := strings.ToLower(strings.TrimSpace(claims.Email))

		var member models.Member
		findErr := db.Collection("members").FindOne(ctx, bson.M{"email": email}).Decode(&member)
		switch {
		case findErr == nil:
			if member.IsDeleted {
				respondWithError(c, http.StatusForbidden, "AUTH", CodeMemberWithdrawn, "member has withdrawn")
				return
			}
		case findErr == mongo.ErrNoDocuments:
			created, err := createMember(ctx, db, claims, email)
			if err != nil {
				log.Println("[AUTH] member creation failed:", err)
				respondWithError(c, http.StatusInternalServerError, "AUTH", CodeDBError, "db error")
				return
			}
			member = *created
		default:
			log.Println("[AUTH] member lookup failed:", findErr)
			respondWithError(c, http.StatusInternalServerError, "AUTH", CodeDBError, "db error")
			return
		}

		if req.FcmToken != "" || req.DeviceType != "" || req.DeviceID != "" {
			update := bson.M{"updatedAt": time.Now()}
			if req.FcmToken != "" {
				update["fcmToken"] = req.FcmToken
			}
			if req.DeviceType != "" {
				update["deviceType"] = req.DeviceType
			}
			if req.DeviceID != "" {
				if _, err := uuid.Parse(req.DeviceID); err != nil {
					log.Println("[AUTH] ignoring malformed device id:", req.DeviceID)
				} else {
					update["deviceId"] = req.DeviceID
				}
			}
			if _, err := db.Collection("members").UpdateByID(ctx, member.ID, bson.M{"$set": update}); err != nil {
				log.Println("[AUTH] device info update failed:", err)
			}
		}

		tokens, err := issueMemberTokens(ctx, db, member.ID, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			log.Println("[AUTH] token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", CodeInternalError, "token generation failed")
			return
		}

		log.Println("[AUTH] sign-in succeeded:", member.Email)
		c.JSON(http.StatusOK, gin.H{
			"accessToken":      tokens.AccessToken,
			"refreshToken":     tokens.RefreshToken,
			"expiresIn":        tokens.ExpiresIn,
			"currentStep":      computeOnboardingStep(member),
			"onboardingStatus": member.OnboardingStatus,
			"member":           member,
		})
	}
}

func createMember(ctx context.Context, db *mongo.Database, claims *identity.Claims, email string) (*models.Member, error) {
	nickname, err := generateUniqueNickname(ctx, db)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	member := models.Member{
		Email:            email,
		Name:             nickname,
		PictureURL:       claims.PictureURL,
		Provider:         claims.Provider,
		OnboardingStatus: models.OnboardingNotStarted,
		OnboardingStep:   models.StepTerms,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	res, err := db.Collection("members").InsertOne(ctx, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race against a concurrent first sign-in; the
			// other request created the account, so use it.
			var existing models.Member
			if findErr := db.Collection("members").FindOne(ctx, bson.M{"email": email}).Decode(&existing); findErr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}

	member.ID = res.InsertedID.(primitive.ObjectID)
	log.Println("[AUTH] member created:", email)
	return &member, nil
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh pair is issued. A revoked or expired token is rejected.
func Refresh(db *mongo.Database, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		hash := hashToken(strings.TrimSpace(req.RefreshToken))
		var token models.RefreshToken
		if err := db.Collection("refresh_tokens").FindOne(ctx, bson.M{
			"tokenHash": hash,
			"revoked":   false,
		}).Decode(&token); err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", CodeRefreshTokenInvalid, "invalid refresh token")
			return
		}

		if time.Now().After(token.ExpiresAt) {
			_, _ = db.Collection("refresh_tokens").UpdateByID(ctx, token.ID, bson.M{"$set": bson.M{"revoked": true}})
			respondWithError(c, http.StatusUnauthorized, "AUTH", CodeRefreshTokenExpired, "refresh token expired")
			return
		}

		member, err := findLiveMember(ctx, db, token.MemberID)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, "AUTH", CodeMemberNotFound, "member not found")
			return
		}

		newTokens, err := issueMemberTokens(ctx, db, member.ID, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			log.Println("[AUTH] refresh token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "AUTH", CodeInternalError, "token generation failed")
			return
		}

		_, _ = db.Collection("refresh_tokens").UpdateByID(ctx, token.ID, bson.M{
			"$set": bson.M{
				"revoked":         true,
				"replacedByToken": newTokens.RefreshTokenID,
			},
		})

		c.JSON(http.StatusOK, gin.H{
			"accessToken":  newTokens.AccessToken,
			"refreshToken": newTokens.RefreshToken,
			"expiresIn":    newTokens.ExpiresIn,
		})
	}
}

func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		hash := hashToken(strings.TrimSpace(req.RefreshToken))
		res, err := db.Collection("refresh_tokens").UpdateOne(ctx, bson.M{
			"tokenHash": hash,
			"revoked":   false,
		}, bson.M{"$set": bson.M{"revoked": true}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "AUTH", CodeDBError, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusUnauthorized, "AUTH", CodeRefreshTokenInvalid, "invalid refresh token")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "MEMBERS")

		memberID, ok := requireMemberID(c, "MEMBERS")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		member, err := findLiveMember(ctx, db, memberID)
		if err != nil {
			respondMemberLookupError(c, "MEMBERS", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"currentStep": computeOnboardingStep(member),
			"member":      member,
		})
	}
}

// Withdraw soft-deletes the member and revokes every outstanding refresh
// token. The email stays occupied; a withdrawn member cannot sign back in.
func Withdraw(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "MEMBERS")

		memberID, ok := requireMemberID(c, "MEMBERS")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		member, err := findLiveMember(ctx, db, memberID)
		if err != nil {
			respondMemberLookupError(c, "MEMBERS", err)
			return
		}

		now := time.Now()
		if _, err := db.Collection("members").UpdateByID(ctx, member.ID, bson.M{
			"$set": bson.M{
				"isDeleted": true,
				"deletedAt": now,
				"updatedAt": now,
			},
		}); err != nil {
			log.Println("[MEMBERS] withdraw update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "MEMBERS", CodeDBError, "db error")
			return
		}

		if _, err := db.Collection("refresh_tokens").UpdateMany(ctx, bson.M{
			"memberId": member.ID,
			"revoked":  false,
		}, bson.M{"$set": bson.M{"revoked": true}}); err != nil {
			log.Println("[MEMBERS] withdraw token revocation failed:", err)
		}

		log.Println("[MEMBERS] member withdrawn:", member.Email)
		c.JSON(http.StatusOK, gin.H{"message": "member withdrawn"})
	}
}

func respondMemberLookupError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, errMemberWithdrawn):
		respondWithError(c, http.StatusForbidden, route, CodeMemberWithdrawn, "member has withdrawn")
	case errors.Is(err, errMemberNotFound):
		respondWithError(c, http.StatusNotFound, route, CodeMemberNotFound, "member not found")
	default:
		log.Printf("[%s] member lookup failed: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
	}
}

type issuedTokens struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID primitive.ObjectID
	ExpiresIn      int64
}

func issueMemberTokens(ctx context.Context, db *mongo.Database, memberID primitive.ObjectID, secret string, accessTTL, refreshTTL time.Duration) (*issuedTokens, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"memberId": memberID.Hex(),
		"exp":      now.Add(accessTTL).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	plainRefresh := generateRefreshString()
	if plainRefresh == "" {
		return nil, errors.New("could not generate refresh token")
	}

	refresh := models.RefreshToken{
		MemberID:  memberID,
		TokenHash: hashToken(plainRefresh),
		ExpiresAt: now.Add(refreshTTL),
		Revoked:   false,
		CreatedAt: now,
	}

	res, err := db.Collection("refresh_tokens").InsertOne(ctx, refresh)
	if err != nil {
		return nil, err
	}

	return &issuedTokens{
		AccessToken:    accessToken,
		RefreshToken:   plainRefresh,
		RefreshTokenID: res.InsertedID.(primitive.ObjectID),
		ExpiresIn:      int64(accessTTL.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
