package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"backend/internal/notify"
)

func postCallback(t *testing.T, handler gin.HandlerFunc, payload any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/ai/callback", handler)

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/ai/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	code, _ := body["code"].(string)
	return code
}

func TestAiCallbackRejectsMissingContentID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("missing content id", func(mt *mtest.T) {
		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{ResultStatus: "SUCCESS"})
		if w.Code != http.StatusBadRequest {
			mt.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if code := decodeErrorCode(mt.T, w); code != CodeInvalidRequest {
			mt.Fatalf("expected code %s, got %s", CodeInvalidRequest, code)
		}
	})

	mt.Run("malformed content id", func(mt *mtest.T) {
		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{ContentID: "not-an-id", ResultStatus: "SUCCESS"})
		if w.Code != http.StatusBadRequest {
			mt.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestAiCallbackUnknownContent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("content not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "testdb.contents", mtest.FirstBatch))

		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{
			ContentID:    primitive.NewObjectID().Hex(),
			ResultStatus: "SUCCESS",
		})
		if w.Code != http.StatusNotFound {
			mt.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
		}
		if code := decodeErrorCode(mt.T, w); code != CodeContentNotFound {
			mt.Fatalf("expected code %s, got %s", CodeContentNotFound, code)
		}
	})
}

func TestAiCallbackUnknownStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("unknown result status", func(mt *mtest.T) {
		contentID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "testdb.contents", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: contentID},
			{Key: "originalUrl", Value: "https://example.com/v/1"},
			{Key: "status", Value: "PENDING"},
		}))

		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{
			ContentID:    contentID.Hex(),
			ResultStatus: "PARTIAL",
		})
		if w.Code != http.StatusBadRequest {
			mt.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if code := decodeErrorCode(mt.T, w); code != CodeInvalidRequest {
			mt.Fatalf("expected code %s, got %s", CodeInvalidRequest, code)
		}
	})
}

func TestAiCallbackFailedMarksContent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("failed status", func(mt *mtest.T) {
		contentID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "testdb.contents", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: contentID},
				{Key: "originalUrl", Value: "https://example.com/v/1"},
				{Key: "status", Value: "PENDING"},
			}),
			mtest.CreateSuccessResponse(),
		)

		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{
			ContentID:    contentID.Hex(),
			ResultStatus: "FAILED",
		})
		if w.Code != http.StatusOK {
			mt.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			mt.Fatalf("decode response: %v", err)
		}
		if body["received"] != true || body["contentId"] != contentID.Hex() {
			mt.Fatalf("unexpected body: %v", body)
		}
	})
}

func TestAiCallbackReprocessReplacesContentPlaces(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	contentDoc := func(id primitive.ObjectID, status string) bson.D {
		return bson.D{
			{Key: "_id", Value: id},
			{Key: "originalUrl", Value: "https://example.com/v/1"},
			{Key: "status", Value: status},
		}
	}

	deleteTargets := func(mt *mtest.T) []string {
		targets := []string{}
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "delete" {
				targets = append(targets, evt.Command.Lookup("delete").StringValue())
			}
		}
		return targets
	}

	mt.Run("completed content is wiped before relinking", func(mt *mtest.T) {
		contentID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "testdb.contents", mtest.FirstBatch, contentDoc(contentID, "COMPLETED")),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, "testdb.contents", mtest.FirstBatch, contentDoc(contentID, "COMPLETED")),
			mtest.CreateCursorResponse(0, "testdb.content_members", mtest.FirstBatch),
		)

		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{
			ContentID:    contentID.Hex(),
			ResultStatus: "SUCCESS",
		})
		if w.Code != http.StatusOK {
			mt.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		targets := deleteTargets(mt)
		if len(targets) != 1 || targets[0] != "content_places" {
			mt.Fatalf("expected one delete on content_places, got %v", targets)
		}
	})

	mt.Run("pending content keeps nothing to wipe", func(mt *mtest.T) {
		contentID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "testdb.contents", mtest.FirstBatch, contentDoc(contentID, "PENDING")),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, "testdb.contents", mtest.FirstBatch, contentDoc(contentID, "COMPLETED")),
			mtest.CreateCursorResponse(0, "testdb.content_members", mtest.FirstBatch),
		)

		handler := AiCallback(mt.Client.Database("testdb"), notify.NewConsole())

		w := postCallback(mt.T, handler, AiCallbackRequest{
			ContentID:    contentID.Hex(),
			ResultStatus: "SUCCESS",
		})
		if w.Code != http.StatusOK {
			mt.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		if targets := deleteTargets(mt); len(targets) != 0 {
			mt.Fatalf("expected no delete commands, got %v", targets)
		}
	})
}
