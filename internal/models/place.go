package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Place is a shared point of interest. Coordinates are stored as Decimal128
// at a fixed 7-decimal scale so that (name, latitude, longitude) dedup is an
// exact match.
type Place struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name             string               `bson:"name" json:"name"`
	Address          string               `bson:"address,omitempty" json:"address,omitempty"`
	Country          string               `bson:"country,omitempty" json:"country,omitempty"`
	Latitude         primitive.Decimal128 `bson:"latitude" json:"latitude"`
	Longitude        primitive.Decimal128 `bson:"longitude" json:"longitude"`
	Types            StringList           `bson:"types,omitempty" json:"types,omitempty"`
	BusinessStatus   string               `bson:"businessStatus,omitempty" json:"businessStatus,omitempty"`
	Phone            string               `bson:"phone,omitempty" json:"phone,omitempty"`
	OpeningHours     string               `bson:"openingHours,omitempty" json:"openingHours,omitempty"`
	Description      string               `bson:"description,omitempty" json:"description,omitempty"`
	IconURL          string               `bson:"iconUrl,omitempty" json:"iconUrl,omitempty"`
	Rating           float64              `bson:"rating,omitempty" json:"rating,omitempty"`
	UserRatingsTotal int                  `bson:"userRatingsTotal,omitempty" json:"userRatingsTotal,omitempty"`
	PhotoURLs        []string             `bson:"photoUrls,omitempty" json:"photoUrls,omitempty"`
	IsDeleted        bool                 `bson:"isDeleted" json:"-"`
	DeletedAt        *time.Time           `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}
