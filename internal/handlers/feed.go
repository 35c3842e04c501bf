package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// GetLatestFeed lists completed contents, newest first.
func GetLatestFeed(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "FEED")

		page, size, err := parsePaginationParams(c.Query("page"), c.Query("size"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "FEED", CodeInvalidPagination, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"status": models.ContentCompleted}

		coll := db.Collection("contents")
		total, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		cursor, err := coll.Find(ctx, filter,
			options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetSkip((page-1)*size).
				SetLimit(size),
		)
		if err != nil {
			log.Println("[FEED] latest query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		contents := []models.Content{}
		if err := cursor.All(ctx, &contents); err != nil {
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       contents,
			"pagination": gin.H{"page": page, "size": size, "total": total},
		})
	}
}

type popularPlaceEntry struct {
	Place     models.Place `bson:"place" json:"place"`
	SaveCount int64        `bson:"saveCount" json:"saveCount"`
}

// GetPopularFeed ranks places by how many members saved them.
func GetPopularFeed(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "FEED")

		page, size, err := parsePaginationParams(c.Query("page"), c.Query("size"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "FEED", CodeInvalidPagination, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"savedStatus": models.SavedStatusSaved,
				"isDeleted":   bson.M{"$ne": true},
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":       "$placeId",
				"saveCount": bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "saveCount", Value: -1}, {Key: "_id", Value: 1}}}},
			{{Key: "$skip", Value: (page - 1) * size}},
			{{Key: "$limit", Value: size}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "places",
				"localField":   "_id",
				"foreignField": "_id",
				"as":           "place",
			}}},
			{{Key: "$unwind", Value: "$place"}},
			{{Key: "$match", Value: bson.M{"place.isDeleted": bson.M{"$ne": true}}}},
		}

		cursor, err := db.Collection("member_places").Aggregate(ctx, pipeline)
		if err != nil {
			log.Println("[FEED] popular aggregation failed:", err)
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		entries := []popularPlaceEntry{}
		if err := cursor.All(ctx, &entries); err != nil {
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       entries,
			"pagination": gin.H{"page": page, "size": size},
		})
	}
}

// GetMyTopPlaces returns the member's most recently saved places.
func GetMyTopPlaces(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "FEED")

		memberID, ok := requireMemberID(c, "FEED")
		if !ok {
			return
		}

		limit := int64(10)
		if limitStr := c.Query("limit"); limitStr != "" {
			parsed, err := strconv.ParseInt(limitStr, 10, 64)
			if err != nil || parsed < 1 || parsed > 100 {
				respondWithError(c, http.StatusBadRequest, "FEED", CodeInvalidPagination, "invalid limit")
				return
			}
			limit = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("member_places").Find(ctx, bson.M{
			"memberId":    memberID,
			"savedStatus": models.SavedStatusSaved,
			"isDeleted":   bson.M{"$ne": true},
		}, options.Find().
			SetSort(bson.D{{Key: "savedAt", Value: -1}}).
			SetLimit(limit),
		)
		if err != nil {
			log.Println("[FEED] top places query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		memberPlaces := []models.MemberPlace{}
		if err := cursor.All(ctx, &memberPlaces); err != nil {
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		entries, err := attachPlaces(ctx, db, memberPlaces)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "FEED", CodeDBError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": entries})
	}
}
