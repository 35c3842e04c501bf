package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContentStatus string

const (
	ContentPending   ContentStatus = "PENDING"
	ContentCompleted ContentStatus = "COMPLETED"
	ContentFailed    ContentStatus = "FAILED"
)

type ContentPlatform string

const (
	PlatformInstagram ContentPlatform = "INSTAGRAM"
	PlatformYoutube   ContentPlatform = "YOUTUBE"
	PlatformTiktok    ContentPlatform = "TIKTOK"
	PlatformNaverBlog ContentPlatform = "NAVER_BLOG"
	PlatformOther     ContentPlatform = "OTHER"
)

// ParseContentPlatform reports whether s names a known platform.
func ParseContentPlatform(s string) (ContentPlatform, bool) {
	switch ContentPlatform(s) {
	case PlatformInstagram, PlatformYoutube, PlatformTiktok, PlatformNaverBlog, PlatformOther:
		return ContentPlatform(s), true
	}
	return "", false
}

// Content is a submitted social post waiting for (or holding) AI extraction
// results. OriginalURL is unique across live contents.
type Content struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalURL      string             `bson:"originalUrl" json:"originalUrl"`
	Title            string             `bson:"title,omitempty" json:"title,omitempty"`
	ThumbnailURL     string             `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	Summary          string             `bson:"summary,omitempty" json:"summary,omitempty"`
	PlatformUploader string             `bson:"platformUploader,omitempty" json:"platformUploader,omitempty"`
	Platform         ContentPlatform    `bson:"platform,omitempty" json:"platform,omitempty"`
	Status           ContentStatus      `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ContentMember records which members requested extraction of a content and
// whether the completion push already reached them.
type ContentMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ContentID primitive.ObjectID `bson:"contentId" json:"contentId"`
	MemberID  primitive.ObjectID `bson:"memberId" json:"memberId"`
	Notified  bool               `bson:"notified" json:"notified"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ContentPlace links a content to an extracted place, keeping the ordinal
// position the place held in the source post.
type ContentPlace struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ContentID primitive.ObjectID `bson:"contentId" json:"contentId"`
	PlaceID   primitive.ObjectID `bson:"placeId" json:"placeId"`
	Position  int                `bson:"position" json:"position"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
