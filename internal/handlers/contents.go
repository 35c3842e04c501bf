package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type SubmitContentRequest struct {
	URL      string `json:"url" binding:"required"`
	Platform string `json:"platform"`
}

// SubmitContent registers a social post for extraction. Submitting a URL
// someone already requested just adds the caller to its members.
func SubmitContent(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CONTENTS")

		memberID, ok := requireMemberID(c, "CONTENTS")
		if !ok {
			return
		}

		var req SubmitContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		rawURL := strings.TrimSpace(req.URL)
		if parsed, err := url.Parse(rawURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			respondWithError(c, http.StatusBadRequest, "CONTENTS", CodeInvalidRequest, "url must be absolute")
			return
		}

		platform := models.PlatformOther
		if req.Platform != "" {
			parsed, ok := models.ParseContentPlatform(strings.ToUpper(strings.TrimSpace(req.Platform)))
			if !ok {
				respondWithError(c, http.StatusBadRequest, "CONTENTS", CodeInvalidRequest, "unknown platform")
				return
			}
			platform = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var content models.Content
		findErr := db.Collection("contents").FindOne(ctx, bson.M{"originalUrl": rawURL}).Decode(&content)
		alreadyExists := findErr == nil

		if findErr != nil && findErr != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
			return
		}

		if !alreadyExists {
			now := time.Now()
			content = models.Content{
				OriginalURL: rawURL,
				Platform:    platform,
				Status:      models.ContentPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			res, err := db.Collection("contents").InsertOne(ctx, content)
			if err != nil {
				if mongo.IsDuplicateKeyError(err) {
					// Concurrent submission of the same URL; pick up the winner's row.
					if refetchErr := db.Collection("contents").FindOne(ctx, bson.M{"originalUrl": rawURL}).Decode(&content); refetchErr == nil {
						alreadyExists = true
					} else {
						respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
						return
					}
				} else {
					log.Println("[CONTENTS] insert failed:", err)
					respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
					return
				}
			} else {
				content.ID = res.InsertedID.(primitive.ObjectID)
			}
		}

		alreadyRequested := false
		membership := models.ContentMember{
			ContentID: content.ID,
			MemberID:  memberID,
			CreatedAt: time.Now(),
		}
		if _, err := db.Collection("content_members").InsertOne(ctx, membership); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				alreadyRequested = true
			} else {
				respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
				return
			}
		}

		status := http.StatusCreated
		if alreadyExists {
			status = http.StatusOK
		}
		log.Printf("[CONTENTS] member %s submitted %s (existing=%v)", memberID.Hex(), rawURL, alreadyExists)
		c.JSON(status, gin.H{
			"content":          content,
			"alreadyRequested": alreadyRequested,
		})
	}
}

// GetContent returns a content with its extracted places in source order.
func GetContent(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CONTENTS")

		contentID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "CONTENTS", CodeInvalidRequest, "invalid content id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var content models.Content
		if err := db.Collection("contents").FindOne(ctx, bson.M{"_id": contentID}).Decode(&content); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, "CONTENTS", CodeContentNotFound, "content not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
			return
		}

		cursor, err := db.Collection("content_places").Find(ctx,
			bson.M{"contentId": contentID},
			options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
			return
		}

		links := []models.ContentPlace{}
		if err := cursor.All(ctx, &links); err != nil {
			respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
			return
		}

		places := []models.Place{}
		if len(links) > 0 {
			ids := make([]primitive.ObjectID, 0, len(links))
			for _, link := range links {
				ids = append(ids, link.PlaceID)
			}

			placeCursor, err := db.Collection("places").Find(ctx, bson.M{
				"_id":       bson.M{"$in": ids},
				"isDeleted": bson.M{"$ne": true},
			})
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
				return
			}

			fetched := []models.Place{}
			if err := placeCursor.All(ctx, &fetched); err != nil {
				respondWithError(c, http.StatusInternalServerError, "CONTENTS", CodeDBError, "db error")
				return
			}

			byID := make(map[primitive.ObjectID]models.Place, len(fetched))
			for _, place := range fetched {
				byID[place.ID] = place
			}
			for _, link := range links {
				if place, ok := byID[link.PlaceID]; ok {
					places = append(places, place)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"content": content,
			"places":  places,
		})
	}
}
