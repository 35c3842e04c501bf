package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"backend/internal/identity"
)

type staticVerifier struct {
	claims *identity.Claims
	err    error
}

func (v *staticVerifier) Verify(string) (*identity.Claims, error) {
	return v.claims, v.err
}

func postSignIn(t *testing.T, handler gin.HandlerFunc, payload any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/auth/signin", handler)

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignInResponseCarriesOnboardingStep(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("existing member before terms", func(mt *mtest.T) {
		memberID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "testdb.members", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: memberID},
				{Key: "email", Value: "dana@example.com"},
				{Key: "name", Value: "brisk-otter"},
				{Key: "termsAgreed", Value: false},
				{Key: "onboardingStatus", Value: "IN_PROGRESS"},
			}),
			mtest.CreateSuccessResponse(),
		)

		verifier := &staticVerifier{claims: &identity.Claims{
			Subject: "sub-1",
			Email:   "dana@example.com",
		}}
		handler := SignIn(mt.Client.Database("testdb"), verifier, "test-secret", 20*time.Minute, 7*24*time.Hour)

		w := postSignIn(mt.T, handler, SignInRequest{IdToken: "anything"})
		if w.Code != http.StatusOK {
			mt.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			mt.Fatalf("decode response: %v", err)
		}
		if body["currentStep"] != "TERMS" {
			mt.Fatalf("expected currentStep TERMS, got %v", body["currentStep"])
		}
		if body["onboardingStatus"] != "IN_PROGRESS" {
			mt.Fatalf("expected onboardingStatus IN_PROGRESS, got %v", body["onboardingStatus"])
		}
		if token, _ := body["accessToken"].(string); token == "" {
			mt.Fatal("expected a non-empty access token")
		}
	})

	mt.Run("withdrawn member is rejected", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "testdb.members", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "email", Value: "gone@example.com"},
				{Key: "isDeleted", Value: true},
			}),
		)

		verifier := &staticVerifier{claims: &identity.Claims{
			Subject: "sub-2",
			Email:   "gone@example.com",
		}}
		handler := SignIn(mt.Client.Database("testdb"), verifier, "test-secret", 20*time.Minute, 7*24*time.Hour)

		w := postSignIn(mt.T, handler, SignInRequest{IdToken: "anything"})
		if w.Code != http.StatusForbidden {
			mt.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
		}
		if code := decodeErrorCode(mt.T, w); code != CodeMemberWithdrawn {
			mt.Fatalf("expected code %s, got %s", CodeMemberWithdrawn, code)
		}
	})
}
