package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

var bookmarkSortFields = map[string]string{
	"savedAt":   "savedAt",
	"createdAt": "createdAt",
	"rating":    "rating",
}

type UpdateBookmarkRequest struct {
	Folder    *string    `json:"folder"`
	Memo      *string    `json:"memo"`
	Rating    *int       `json:"rating"`
	Visited   *bool      `json:"visited"`
	VisitedAt *time.Time `json:"visitedAt"`
}

// GetBookmarks lists the member's SAVED places with their place documents.
func GetBookmarks(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "BOOKMARKS")

		memberID, ok := requireMemberID(c, "BOOKMARKS")
		if !ok {
			return
		}

		page, size, err := parsePaginationParams(c.Query("page"), c.Query("size"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BOOKMARKS", CodeInvalidPagination, err.Error())
			return
		}

		sortField, err := parseSortParam(c.Query("sort"), "savedAt", bookmarkSortFields)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BOOKMARKS", CodeInvalidPagination, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{
			"memberId":    memberID,
			"savedStatus": models.SavedStatusSaved,
			"isDeleted":   bson.M{"$ne": true},
		}
		if folder := c.Query("folder"); folder != "" {
			filter["folder"] = folder
		}

		coll := db.Collection("member_places")
		total, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
			return
		}

		cursor, err := coll.Find(ctx, filter,
			options.Find().
				SetSort(bson.D{{Key: sortField, Value: -1}}).
				SetSkip((page-1)*size).
				SetLimit(size),
		)
		if err != nil {
			log.Println("[BOOKMARKS] query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
			return
		}

		bookmarks := []models.MemberPlace{}
		if err := cursor.All(ctx, &bookmarks); err != nil {
			respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
			return
		}

		entries, err := attachPlaces(ctx, db, bookmarks)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       entries,
			"pagination": gin.H{"page": page, "size": size, "total": total},
		})
	}
}

// UpdateBookmark applies a partial patch to a SAVED bookmark. TEMPORARY rows
// are rejected even when the patch body is empty.
func UpdateBookmark(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "BOOKMARKS")

		memberID, ok := requireMemberID(c, "BOOKMARKS")
		if !ok {
			return
		}

		memberPlaceID, err := primitive.ObjectIDFromHex(c.Param("memberPlaceId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "BOOKMARKS", CodeInvalidRequest, "invalid bookmark id")
			return
		}

		var req UpdateBookmarkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var memberPlace models.MemberPlace
		if err := db.Collection("member_places").FindOne(ctx, bson.M{
			"_id":       memberPlaceID,
			"memberId":  memberID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&memberPlace); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, "BOOKMARKS", CodeMemberPlaceNotFound, "bookmark not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
			return
		}

		if memberPlace.SavedStatus != models.SavedStatusSaved {
			respondWithError(c, http.StatusConflict, "BOOKMARKS", CodeCannotUpdateUnsaved, "bookmark is not saved")
			return
		}

		update, err := resolveBookmarkUpdate(bookmarkUpdateInput{
			Folder:    req.Folder,
			Memo:      req.Memo,
			Rating:    req.Rating,
			Visited:   req.Visited,
			VisitedAt: req.VisitedAt,
		}, time.Now())
		if err != nil {
			code := CodeInvalidRequest
			if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
				code = CodeInvalidRating
			}
			respondWithError(c, http.StatusBadRequest, "BOOKMARKS", code, err.Error())
			return
		}

		if len(update) > 0 {
			update["updatedAt"] = time.Now()
			if _, err := db.Collection("member_places").UpdateByID(ctx, memberPlace.ID, bson.M{"$set": update}); err != nil {
				log.Println("[BOOKMARKS] update failed:", err)
				respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
				return
			}
		}

		var updated models.MemberPlace
		if err := db.Collection("member_places").FindOne(ctx, bson.M{"_id": memberPlace.ID}).Decode(&updated); err != nil {
			respondWithError(c, http.StatusInternalServerError, "BOOKMARKS", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}
