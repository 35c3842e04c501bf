package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Keyword is a normalized hashtag/tag extracted from content. Count grows on
// every linking call; trendScore and prevCount belong to the trend daemon.
type Keyword struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Keyword    string             `bson:"keyword" json:"keyword"`
	Count      int                `bson:"count" json:"count"`
	PrevCount  int                `bson:"prevCount" json:"-"`
	TrendScore float64            `bson:"trendScore" json:"trendScore"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlaceKeyword is the junction record for the Place<->Keyword many-to-many
// relation. The (placeId, keywordId) pair is unique; neither side keeps an
// in-memory back-reference.
type PlaceKeyword struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlaceID   primitive.ObjectID `bson:"placeId" json:"placeId"`
	KeywordID primitive.ObjectID `bson:"keywordId" json:"keywordId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
