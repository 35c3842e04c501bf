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

type memberPlaceEntry struct {
	models.MemberPlace
	Place *models.Place `json:"place,omitempty"`
}

func listMemberPlaces(c *gin.Context, db *mongo.Database, route string, status models.SavedStatus) {
	memberID, ok := requireMemberID(c, route)
	if !ok {
		return
	}

	page, size, err := parsePaginationParams(c.Query("page"), c.Query("size"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, CodeInvalidPagination, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"memberId":    memberID,
		"savedStatus": status,
		"isDeleted":   bson.M{"$ne": true},
	}

	coll := db.Collection("member_places")
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
		return
	}

	cursor, err := coll.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*size).
			SetLimit(size),
	)
	if err != nil {
		log.Printf("[%s] member place query failed: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
		return
	}

	memberPlaces := []models.MemberPlace{}
	if err := cursor.All(ctx, &memberPlaces); err != nil {
		respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
		return
	}

	entries, err := attachPlaces(ctx, db, memberPlaces)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, CodeDBError, "db error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       entries,
		"pagination": gin.H{"page": page, "size": size, "total": total},
	})
}

func attachPlaces(ctx context.Context, db *mongo.Database, memberPlaces []models.MemberPlace) ([]memberPlaceEntry, error) {
	entries := make([]memberPlaceEntry, 0, len(memberPlaces))
	if len(memberPlaces) == 0 {
		return entries, nil
	}

	ids := make([]primitive.ObjectID, 0, len(memberPlaces))
	for _, mp := range memberPlaces {
		ids = append(ids, mp.PlaceID)
	}

	cursor, err := db.Collection("places").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	places := []models.Place{}
	if err := cursor.All(ctx, &places); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*models.Place, len(places))
	for i := range places {
		byID[places[i].ID] = &places[i]
	}

	for _, mp := range memberPlaces {
		entries = append(entries, memberPlaceEntry{MemberPlace: mp, Place: byID[mp.PlaceID]})
	}
	return entries, nil
}

func GetTemporaryPlaces(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "PLACES")
		listMemberPlaces(c, db, "PLACES", models.SavedStatusTemporary)
	}
}

func GetSavedPlaces(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "PLACES")
		listMemberPlaces(c, db, "PLACES", models.SavedStatusSaved)
	}
}

// SavePlace promotes a TEMPORARY association to SAVED. Saving twice is an
// error; there is no way back to TEMPORARY.
func SavePlace(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "PLACES")

		memberID, ok := requireMemberID(c, "PLACES")
		if !ok {
			return
		}

		placeID, err := primitive.ObjectIDFromHex(c.Param("placeId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PLACES", CodeInvalidRequest, "invalid place id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var memberPlace models.MemberPlace
		if err := db.Collection("member_places").FindOne(ctx, bson.M{
			"memberId":  memberID,
			"placeId":   placeID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&memberPlace); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, "PLACES", CodeMemberPlaceNotFound, "place not found for member")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		if memberPlace.SavedStatus == models.SavedStatusSaved {
			respondWithError(c, http.StatusConflict, "PLACES", CodePlaceAlreadySaved, "place already saved")
			return
		}

		now := time.Now()
		if _, err := db.Collection("member_places").UpdateByID(ctx, memberPlace.ID, bson.M{
			"$set": bson.M{
				"savedStatus": models.SavedStatusSaved,
				"savedAt":     now,
				"folder":      models.DefaultBookmarkFolder,
				"updatedAt":   now,
			},
		}); err != nil {
			log.Println("[PLACES] save update failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		log.Printf("[PLACES] member %s saved place %s", memberID.Hex(), placeID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "place saved", "savedAt": now})
	}
}

// DeleteTemporaryPlace soft-deletes a TEMPORARY association. SAVED bookmarks
// cannot be removed through this endpoint.
func DeleteTemporaryPlace(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "PLACES")

		memberID, ok := requireMemberID(c, "PLACES")
		if !ok {
			return
		}

		placeID, err := primitive.ObjectIDFromHex(c.Param("placeId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "PLACES", CodeInvalidRequest, "invalid place id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var memberPlace models.MemberPlace
		if err := db.Collection("member_places").FindOne(ctx, bson.M{
			"memberId":  memberID,
			"placeId":   placeID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&memberPlace); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, "PLACES", CodeMemberPlaceNotFound, "place not found for member")
				return
			}
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		if memberPlace.SavedStatus != models.SavedStatusTemporary {
			respondWithError(c, http.StatusConflict, "PLACES", CodeCannotDeleteSaved, "only temporary places can be deleted")
			return
		}

		now := time.Now()
		if _, err := db.Collection("member_places").UpdateByID(ctx, memberPlace.ID, bson.M{
			"$set": bson.M{
				"isDeleted": true,
				"deletedAt": now,
				"updatedAt": now,
			},
		}); err != nil {
			log.Println("[PLACES] temporary delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PLACES", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "temporary place deleted"})
	}
}
