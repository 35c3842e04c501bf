package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
	"backend/internal/notify"
)

type AiContentInfo struct {
	ContentID        string  `json:"contentId"`
	Title            *string `json:"title"`
	ThumbnailURL     *string `json:"thumbnailUrl"`
	ContentURL       *string `json:"contentUrl"`
	PlatformUploader *string `json:"platformUploader"`
	Summary          *string `json:"summary"`
	Platform         *string `json:"platform"`
}

type AiPlaceInfo struct {
	Name         string            `json:"name"`
	Address      *string           `json:"address"`
	Country      *string           `json:"country"`
	Latitude     *float64          `json:"latitude"`
	Longitude    *float64          `json:"longitude"`
	Category     models.StringList `json:"category"`
	Phone        *string           `json:"phone"`
	OpeningHours *string           `json:"openingHours"`
	Description  *string           `json:"description"`
	Keywords     []string          `json:"keywords"`
}

type AiCallbackRequest struct {
	ContentID    string         `json:"contentId"`
	ResultStatus string         `json:"resultStatus"`
	ContentInfo  *AiContentInfo `json:"contentInfo"`
	Places       []AiPlaceInfo  `json:"places"`
}

// resolveCallbackContentID prefers the top-level contentId and falls back to
// the one nested in contentInfo.
func resolveCallbackContentID(req AiCallbackRequest) (string, bool) {
	if id := strings.TrimSpace(req.ContentID); id != "" {
		return id, true
	}
	if req.ContentInfo != nil {
		if id := strings.TrimSpace(req.ContentInfo.ContentID); id != "" {
			return id, true
		}
	}
	return "", false
}

// partitionCallbackPlaces splits the payload into processable places and the
// names of places skipped for missing or out-of-range coordinates.
func partitionCallbackPlaces(places []AiPlaceInfo) (valid []AiPlaceInfo, skipped []string) {
	for _, place := range places {
		name := strings.TrimSpace(place.Name)
		if name == "" {
			skipped = append(skipped, "(unnamed)")
			continue
		}
		if place.Latitude == nil || place.Longitude == nil {
			skipped = append(skipped, name)
			continue
		}
		if err := validateCoordinates(*place.Latitude, *place.Longitude); err != nil {
			skipped = append(skipped, name)
			continue
		}
		place.Name = name
		valid = append(valid, place)
	}
	return valid, skipped
}

// buildContentMetadataUpdate maps non-nil metadata fields onto an update
// document, preserving everything the AI server did not send. An unparsable
// platform is reported as a warning and the stored value kept. A URL change
// is returned separately so the caller can conflict-check it.
func buildContentMetadataUpdate(info *AiContentInfo) (update bson.M, requestedURL *string, warnings []string) {
	update = bson.M{}
	if info == nil {
		return update, nil, nil
	}

	if info.Title != nil {
		update["title"] = *info.Title
	}
	if info.ThumbnailURL != nil {
		update["thumbnailUrl"] = *info.ThumbnailURL
	}
	if info.PlatformUploader != nil {
		update["platformUploader"] = *info.PlatformUploader
	}
	if info.Summary != nil {
		update["summary"] = *info.Summary
	}
	if info.Platform != nil {
		if platform, ok := models.ParseContentPlatform(*info.Platform); ok {
			update["platform"] = platform
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid platform %q, keeping existing value", *info.Platform))
		}
	}
	if info.ContentURL != nil {
		requestedURL = info.ContentURL
	}

	return update, requestedURL, warnings
}

// notificationMessage builds the completion push text. The body varies with
// the extracted place count and whether the content has a title.
func notificationMessage(placeCount int, contentTitle string) (title, body string) {
	title = "Content analysis complete"
	if placeCount > 0 {
		body = fmt.Sprintf("%d places were found.", placeCount)
		if placeCount == 1 {
			body = "1 place was found."
		}
		if contentTitle != "" {
			body = contentTitle + " - " + body
		}
		return title, body
	}
	if contentTitle != "" {
		return title, contentTitle + " analysis is complete."
	}
	return title, "Content analysis is complete."
}

func notificationData(content models.Content, placeCount int) map[string]string {
	data := map[string]string{
		"type":       "CONTENT_COMPLETE",
		"contentId":  content.ID.Hex(),
		"placeCount": strconv.Itoa(placeCount),
	}
	if content.Title != "" {
		data["title"] = content.Title
	}
	if content.ThumbnailURL != "" {
		data["thumbnailUrl"] = content.ThumbnailURL
	}
	return data
}

// AiCallback is the webhook the AI server calls when extraction finishes.
// It reconciles the result into contents, places, keywords and member_places,
// then notifies every member still waiting on the content.
func AiCallback(db *mongo.Database, sender notify.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AI_CALLBACK")

		var req AiCallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		rawID, ok := resolveCallbackContentID(req)
		if !ok {
			log.Printf("[AI_CALLBACK] missing content id, resultStatus=%s", req.ResultStatus)
			respondWithError(c, http.StatusBadRequest, "AI_CALLBACK", CodeInvalidRequest, "contentId is required")
			return
		}

		contentID, err := primitive.ObjectIDFromHex(rawID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "AI_CALLBACK", CodeInvalidRequest, "invalid content id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		var content models.Content
		if err := db.Collection("contents").FindOne(ctx, bson.M{"_id": contentID}).Decode(&content); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, "AI_CALLBACK", CodeContentNotFound, "content not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "AI_CALLBACK", CodeDBError, "db error")
			return
		}

		log.Printf("[AI_CALLBACK] processing contentId=%s resultStatus=%s", contentID.Hex(), req.ResultStatus)

		switch req.ResultStatus {
		case "SUCCESS":
			if err := processSuccessCallback(ctx, db, sender, content, req); err != nil {
				log.Println("[AI_CALLBACK] success processing failed:", err)
				respondWithError(c, http.StatusInternalServerError, "AI_CALLBACK", CodeDBError, "db error")
				return
			}
		case "FAILED":
			if _, err := db.Collection("contents").UpdateByID(ctx, content.ID, bson.M{
				"$set": bson.M{"status": models.ContentFailed, "updatedAt": time.Now()},
			}); err != nil {
				respondWithError(c, http.StatusInternalServerError, "AI_CALLBACK", CodeDBError, "db error")
				return
			}
		default:
			log.Printf("[AI_CALLBACK] unknown resultStatus %q for contentId=%s", req.ResultStatus, contentID.Hex())
			respondWithError(c, http.StatusBadRequest, "AI_CALLBACK", CodeInvalidRequest, "unknown resultStatus")
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true, "contentId": contentID.Hex()})
	}
}

func processSuccessCallback(ctx context.Context, db *mongo.Database, sender notify.Sender, content models.Content, req AiCallbackRequest) error {
	// Reprocessing replaces the previous extraction wholesale.
	if content.Status == models.ContentCompleted {
		log.Printf("[AI_CALLBACK] content %s already completed, replacing extraction", content.ID.Hex())
		if _, err := db.Collection("content_places").DeleteMany(ctx, bson.M{"contentId": content.ID}); err != nil {
			return err
		}
	}

	update, requestedURL, warnings := buildContentMetadataUpdate(req.ContentInfo)
	for _, warning := range warnings {
		log.Printf("[AI_CALLBACK] contentId=%s: %s", content.ID.Hex(), warning)
	}

	if requestedURL != nil && *requestedURL != content.OriginalURL {
		conflicts, err := db.Collection("contents").CountDocuments(ctx, bson.M{
			"originalUrl": *requestedURL,
			"_id":         bson.M{"$ne": content.ID},
		})
		if err != nil {
			return err
		}
		if conflicts > 0 {
			log.Printf("[AI_CALLBACK] cannot update originalUrl for contentId=%s: %q belongs to another content", content.ID.Hex(), *requestedURL)
		} else {
			update["originalUrl"] = *requestedURL
		}
	}

	update["status"] = models.ContentCompleted
	update["updatedAt"] = time.Now()
	if _, err := db.Collection("contents").UpdateByID(ctx, content.ID, bson.M{"$set": update}); err != nil {
		return err
	}
	if err := db.Collection("contents").FindOne(ctx, bson.M{"_id": content.ID}).Decode(&content); err != nil {
		return err
	}

	valid, skipped := partitionCallbackPlaces(req.Places)
	for _, name := range skipped {
		log.Printf("[AI_CALLBACK] skipping place %q for contentId=%s: missing or invalid coordinates", name, content.ID.Hex())
	}

	placeCount := 0
	for position, placeInfo := range valid {
		if err := reconcilePlace(ctx, db, content, placeInfo, position); err != nil {
			// One bad place must not sink the rest of the batch.
			log.Printf("[AI_CALLBACK] failed to process place %q for contentId=%s: %v", placeInfo.Name, content.ID.Hex(), err)
			continue
		}
		placeCount++
	}
	log.Printf("[AI_CALLBACK] saved %d of %d places for contentId=%s", placeCount, len(req.Places), content.ID.Hex())

	notifyContentMembers(ctx, db, sender, content, placeCount)
	return nil
}

func reconcilePlace(ctx context.Context, db *mongo.Database, content models.Content, info AiPlaceInfo, position int) error {
	place, err := resolveOrCreatePlace(ctx, db, info)
	if err != nil {
		return err
	}

	link := models.ContentPlace{
		ContentID: content.ID,
		PlaceID:   place.ID,
		Position:  position,
		CreatedAt: time.Now(),
	}
	if _, err := db.Collection("content_places").InsertOne(ctx, link); err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}

	if len(info.Keywords) > 0 {
		if err := linkKeywordsToPlace(ctx, db, place.ID, info.Keywords); err != nil {
			return err
		}
	}

	createMemberPlacesForContent(ctx, db, content, place.ID)
	return nil
}

// resolveOrCreatePlace dedupes on the exact (name, latitude, longitude)
// triple. An existing place absorbs the non-nil fields of the payload; a new
// one is inserted, falling back to the concurrent winner on a key collision.
func resolveOrCreatePlace(ctx context.Context, db *mongo.Database, info AiPlaceInfo) (*models.Place, error) {
	lat := coordDecimal(*info.Latitude)
	lng := coordDecimal(*info.Longitude)
	identity := bson.M{"name": info.Name, "latitude": lat, "longitude": lng}

	coll := db.Collection("places")

	var existing models.Place
	err := coll.FindOne(ctx, identity).Decode(&existing)
	if err == nil {
		update := placeUpdateFields(info)
		if len(update) > 0 {
			update["updatedAt"] = time.Now()
			if _, err := coll.UpdateByID(ctx, existing.ID, bson.M{"$set": update}); err != nil {
				return nil, err
			}
		}
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now()
	place := models.Place{
		Name:      info.Name,
		Latitude:  lat,
		Longitude: lng,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if info.Address != nil {
		place.Address = *info.Address
	}
	if info.Country != nil {
		place.Country = *info.Country
	}
	if info.Category != nil {
		place.Types = info.Category
	}
	if info.Phone != nil {
		place.Phone = *info.Phone
	}
	if info.OpeningHours != nil {
		place.OpeningHours = *info.OpeningHours
	}
	if info.Description != nil {
		place.Description = *info.Description
	}

	res, insertErr := coll.InsertOne(ctx, place)
	if insertErr == nil {
		place.ID = res.InsertedID.(primitive.ObjectID)
		log.Printf("[AI_CALLBACK] created place %s (%s)", place.ID.Hex(), place.Name)
		return &place, nil
	}
	if mongo.IsDuplicateKeyError(insertErr) {
		var raced models.Place
		if err := coll.FindOne(ctx, identity).Decode(&raced); err != nil {
			return nil, err
		}
		return &raced, nil
	}
	return nil, insertErr
}

// placeUpdateFields maps the non-nil payload fields of an existing place onto
// an update document. Nil fields leave the stored values untouched.
func placeUpdateFields(info AiPlaceInfo) bson.M {
	update := bson.M{}
	if info.Address != nil {
		update["address"] = *info.Address
	}
	if info.Country != nil {
		update["country"] = *info.Country
	}
	if info.Category != nil {
		update["types"] = info.Category
	}
	if info.Phone != nil {
		update["phone"] = *info.Phone
	}
	if info.OpeningHours != nil {
		update["openingHours"] = *info.OpeningHours
	}
	if info.Description != nil {
		update["description"] = *info.Description
	}
	return update
}

// createMemberPlacesForContent gives every member who requested the content a
// TEMPORARY association with the place. Existing live associations are kept;
// per-member failures are logged and skipped.
func createMemberPlacesForContent(ctx context.Context, db *mongo.Database, content models.Content, placeID primitive.ObjectID) {
	cursor, err := db.Collection("content_members").Find(ctx, bson.M{"contentId": content.ID})
	if err != nil {
		log.Println("[AI_CALLBACK] content member query failed:", err)
		return
	}

	contentMembers := []models.ContentMember{}
	if err := cursor.All(ctx, &contentMembers); err != nil {
		log.Println("[AI_CALLBACK] content member decode failed:", err)
		return
	}

	created, skipped := 0, 0
	for _, cm := range contentMembers {
		now := time.Now()
		memberPlace := models.MemberPlace{
			MemberID:        cm.MemberID,
			PlaceID:         placeID,
			SavedStatus:     models.SavedStatusTemporary,
			SourceContentID: &content.ID,
			Folder:          models.DefaultBookmarkFolder,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err := db.Collection("member_places").InsertOne(ctx, memberPlace); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				skipped++
				continue
			}
			log.Printf("[AI_CALLBACK] member place creation failed for memberId=%s placeId=%s: %v", cm.MemberID.Hex(), placeID.Hex(), err)
			continue
		}
		created++
	}

	log.Printf("[AI_CALLBACK] member places for placeId=%s: %d created, %d skipped", placeID.Hex(), created, skipped)
}

// notifyContentMembers pushes the completion notification to every member
// not yet notified about this content, then flags the successful ones in one
// batched update. Delivery failures leave the member unnotified for a retry
// on the next callback.
func notifyContentMembers(ctx context.Context, db *mongo.Database, sender notify.Sender, content models.Content, placeCount int) {
	cursor, err := db.Collection("content_members").Find(ctx, bson.M{
		"contentId": content.ID,
		"notified":  false,
	})
	if err != nil {
		log.Println("[AI_CALLBACK] unnotified member query failed:", err)
		return
	}

	unnotified := []models.ContentMember{}
	if err := cursor.All(ctx, &unnotified); err != nil {
		log.Println("[AI_CALLBACK] unnotified member decode failed:", err)
		return
	}
	if len(unnotified) == 0 {
		return
	}

	title, body := notificationMessage(placeCount, content.Title)
	data := notificationData(content, placeCount)

	succeeded := make([]primitive.ObjectID, 0, len(unnotified))
	for _, cm := range unnotified {
		if err := sender.Send(ctx, cm.MemberID.Hex(), title, body, data, content.ThumbnailURL); err != nil {
			log.Printf("[AI_CALLBACK] notification failed for memberId=%s contentId=%s: %v", cm.MemberID.Hex(), content.ID.Hex(), err)
			continue
		}
		succeeded = append(succeeded, cm.ID)
	}

	if len(succeeded) > 0 {
		if _, err := db.Collection("content_members").UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": succeeded}},
			bson.M{"$set": bson.M{"notified": true}},
		); err != nil {
			log.Println("[AI_CALLBACK] notified flag update failed:", err)
		}
	}

	log.Printf("[AI_CALLBACK] notifications sent: %d/%d for contentId=%s", len(succeeded), len(unnotified), content.ID.Hex())
}
