package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// normalizeKeyword strips a leading '#', trims whitespace and lowercases.
// An empty result means the input was not a usable keyword.
func normalizeKeyword(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "#")
	return strings.ToLower(strings.TrimSpace(trimmed))
}

// createOrGetKeyword bumps the usage counter of an existing keyword or
// inserts a new one. Two concurrent inserts of the same keyword race on the
// unique index; the loser re-fetches and increments instead.
func createOrGetKeyword(ctx context.Context, db *mongo.Database, normalized string) (*models.Keyword, error) {
	now := time.Now()
	coll := db.Collection("keywords")

	var existing models.Keyword
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"keyword": normalized},
		bson.M{"$inc": bson.M{"count": 1}, "$set": bson.M{"updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	keyword := models.Keyword{
		Keyword:   normalized,
		Count:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, insertErr := coll.InsertOne(ctx, keyword)
	if insertErr == nil {
		keyword.ID = res.InsertedID.(primitive.ObjectID)
		return &keyword, nil
	}

	if mongo.IsDuplicateKeyError(insertErr) {
		var raced models.Keyword
		if err := coll.FindOneAndUpdate(ctx,
			bson.M{"keyword": normalized},
			bson.M{"$inc": bson.M{"count": 1}, "$set": bson.M{"updatedAt": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&raced); err != nil {
			return nil, err
		}
		return &raced, nil
	}

	return nil, insertErr
}

// linkKeywordsToPlace normalizes and upserts each keyword, then links it to
// the place. Re-linking an already linked pair is a silent no-op courtesy of
// the compound unique index.
func linkKeywordsToPlace(ctx context.Context, db *mongo.Database, placeID primitive.ObjectID, rawKeywords []string) error {
	for _, raw := range rawKeywords {
		normalized := normalizeKeyword(raw)
		if normalized == "" {
			continue
		}

		keyword, err := createOrGetKeyword(ctx, db, normalized)
		if err != nil {
			return err
		}

		link := models.PlaceKeyword{
			PlaceID:   placeID,
			KeywordID: keyword.ID,
			CreatedAt: time.Now(),
		}
		if _, err := db.Collection("place_keywords").InsertOne(ctx, link); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func GetTrendingKeywords(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "KEYWORDS")

		size := int64(10)
		if sizeStr := c.Query("size"); sizeStr != "" {
			parsed, err := strconv.ParseInt(sizeStr, 10, 64)
			if err != nil || parsed < 1 || parsed > 100 {
				respondWithError(c, http.StatusBadRequest, "KEYWORDS", CodeInvalidPagination, "invalid size")
				return
			}
			size = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("keywords").Find(ctx,
			bson.M{"trendScore": bson.M{"$gt": 0}},
			options.Find().SetSort(bson.D{{Key: "trendScore", Value: -1}}).SetLimit(size),
		)
		if err != nil {
			log.Println("[KEYWORDS] trending query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		keywords := []models.Keyword{}
		if err := cursor.All(ctx, &keywords); err != nil {
			log.Println("[KEYWORDS] trending decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": keywords})
	}
}

func GetPopularKeywords(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "KEYWORDS")

		page, size, err := parsePaginationParams(c.Query("page"), c.Query("size"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "KEYWORDS", CodeInvalidPagination, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		coll := db.Collection("keywords")
		total, err := coll.CountDocuments(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		cursor, err := coll.Find(ctx, bson.M{},
			options.Find().
				SetSort(bson.D{{Key: "count", Value: -1}}).
				SetSkip((page-1)*size).
				SetLimit(size),
		)
		if err != nil {
			log.Println("[KEYWORDS] popular query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		keywords := []models.Keyword{}
		if err := cursor.All(ctx, &keywords); err != nil {
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       keywords,
			"pagination": gin.H{"page": page, "size": size, "total": total},
		})
	}
}

func SearchKeywords(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "KEYWORDS")

		prefix := normalizeKeyword(c.Query("prefix"))
		if prefix == "" {
			respondWithError(c, http.StatusBadRequest, "KEYWORDS", CodeInvalidRequest, "prefix is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("keywords").Find(ctx,
			bson.M{"keyword": bson.M{"$regex": "^" + regexEscape(prefix)}},
			options.Find().SetSort(bson.D{{Key: "count", Value: -1}}).SetLimit(20),
		)
		if err != nil {
			log.Println("[KEYWORDS] search query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		keywords := []models.Keyword{}
		if err := cursor.All(ctx, &keywords); err != nil {
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": keywords})
	}
}

func regexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetPlaceKeywords returns the keywords linked to a place.
func GetPlaceKeywords(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "KEYWORDS")

		placeID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "KEYWORDS", CodeInvalidRequest, "invalid place id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("places").CountDocuments(ctx, bson.M{
			"_id":       placeID,
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}
		if count == 0 {
			respondWithError(c, http.StatusNotFound, "KEYWORDS", CodePlaceNotFound, "place not found")
			return
		}

		cursor, err := db.Collection("place_keywords").Find(ctx, bson.M{"placeId": placeID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		links := []models.PlaceKeyword{}
		if err := cursor.All(ctx, &links); err != nil {
			respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
			return
		}

		keywords := []models.Keyword{}
		if len(links) > 0 {
			ids := make([]primitive.ObjectID, 0, len(links))
			for _, link := range links {
				ids = append(ids, link.KeywordID)
			}

			keywordCursor, err := db.Collection("keywords").Find(ctx,
				bson.M{"_id": bson.M{"$in": ids}},
				options.Find().SetSort(bson.D{{Key: "count", Value: -1}}),
			)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
				return
			}
			if err := keywordCursor.All(ctx, &keywords); err != nil {
				respondWithError(c, http.StatusInternalServerError, "KEYWORDS", CodeDBError, "db error")
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"data": keywords})
	}
}

// SearchPlacesByKeyword lists the places linked to a keyword, count-weighted
// search entry point for discovery.
func SearchPlacesByKeyword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "PLACES")

		normalized := normalizeKeyword(c.Query("keyword"))
		if normalized == "" {
			respondWithError(c, http.StatusBadRequest, "PLACES", CodeInvalidRequest, "keyword is required")
			return
		}

		page, size, err := parsePaginationParams(c.Query("page"), c.Query("size"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PLACES", CodeInvalidPagination, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var keyword models.Keyword
		if err := db.Collection("keywords").FindOne(ctx, bson.M{"keyword": normalized}).Decode(&keyword); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, "PLACES", CodeKeywordNotFound, "keyword not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		linkColl := db.Collection("place_keywords")
		total, err := linkColl.CountDocuments(ctx, bson.M{"keywordId": keyword.ID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		cursor, err := linkColl.Find(ctx,
			bson.M{"keywordId": keyword.ID},
			options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetSkip((page-1)*size).
				SetLimit(size),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		links := []models.PlaceKeyword{}
		if err := cursor.All(ctx, &links); err != nil {
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
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
				respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
				return
			}
			if err := placeCursor.All(ctx, &places); err != nil {
				respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       places,
			"pagination": gin.H{"page": page, "size": size, "total": total},
		})
	}
}
