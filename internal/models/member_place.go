package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SavedStatus string

const (
	SavedStatusTemporary SavedStatus = "TEMPORARY"
	SavedStatusSaved     SavedStatus = "SAVED"
)

const DefaultBookmarkFolder = "default"

// MemberPlace ties one member to one place. AI extraction creates it as
// TEMPORARY; the only allowed transition is TEMPORARY -> SAVED. Bookmark
// metadata (folder, memo, rating, visit) is editable only while SAVED.
//
// SourceContentID is an advisory reference to the content that produced the
// row. It is a plain id, never joined, so the place module does not depend on
// the content module.
type MemberPlace struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MemberID        primitive.ObjectID  `bson:"memberId" json:"memberId"`
	PlaceID         primitive.ObjectID  `bson:"placeId" json:"placeId"`
	SavedStatus     SavedStatus         `bson:"savedStatus" json:"savedStatus"`
	SourceContentID *primitive.ObjectID `bson:"sourceContentId,omitempty" json:"sourceContentId,omitempty"`
	SavedAt         *time.Time          `bson:"savedAt,omitempty" json:"savedAt,omitempty"`
	Folder          string              `bson:"folder" json:"folder"`
	Memo            string              `bson:"memo,omitempty" json:"memo,omitempty"`
	Rating          *int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Visited         bool                `bson:"visited" json:"visited"`
	VisitedAt       *time.Time          `bson:"visitedAt,omitempty" json:"visitedAt,omitempty"`
	IsDeleted       bool                `bson:"isDeleted" json:"-"`
	DeletedAt       *time.Time          `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}
