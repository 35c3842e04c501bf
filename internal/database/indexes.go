package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMemberIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("members").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	// Display names become unique once onboarding assigns one; the partial
	// filter keeps documents without a name out of the constraint.
	nameIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
		Options: options.Index().
			SetName("name_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"name": bson.M{
					"$exists": true,
					"$type":   "string",
				},
			}),
	}

	log.Println("EnsureMemberIndexes: creating email_unique and name_unique indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{emailIndex, nameIndex})
	if err != nil {
		log.Println("EnsureMemberIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureKeywordIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The unique index is what makes get-or-create safe under concurrency: a
	// losing insert surfaces a duplicate-key error and the caller re-fetches.
	keywordIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "keyword", Value: 1}},
		Options: options.Index().
			SetName("keyword_unique").
			SetUnique(true),
	}

	log.Println("EnsureKeywordIndexes: creating keyword_unique index")
	if _, err := db.Collection("keywords").Indexes().CreateOne(ctx, keywordIndex); err != nil {
		log.Println("EnsureKeywordIndexes: keyword index error:", err)
		return err
	}

	linkIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "placeId", Value: 1},
			{Key: "keywordId", Value: 1},
		},
		Options: options.Index().
			SetName("place_keyword_unique").
			SetUnique(true),
	}

	log.Println("EnsureKeywordIndexes: creating place_keyword_unique index")
	if _, err := db.Collection("place_keywords").Indexes().CreateOne(ctx, linkIndex); err != nil {
		log.Println("EnsureKeywordIndexes: place_keyword index error:", err)
		return err
	}
	return nil
}

func EnsurePlaceIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Coordinates are stored at a fixed decimal scale, so the triple is an
	// exact-match identity and a losing concurrent insert can re-fetch.
	identityIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: 1},
			{Key: "latitude", Value: 1},
			{Key: "longitude", Value: 1},
		},
		Options: options.Index().
			SetName("place_identity_unique").
			SetUnique(true),
	}

	log.Println("EnsurePlaceIndexes: creating place_identity_unique index")
	_, err := db.Collection("places").Indexes().CreateOne(ctx, identityIndex)
	if err != nil {
		log.Println("EnsurePlaceIndexes: place identity index error:", err)
		return err
	}
	return nil
}

func EnsureMemberPlaceIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// One live row per (member, place); soft-deleted rows fall out of the
	// constraint so a re-extracted place can be linked again.
	pairIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "memberId", Value: 1},
			{Key: "placeId", Value: 1},
		},
		Options: options.Index().
			SetName("member_place_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"isDeleted": bson.M{"$ne": true},
			}),
	}

	log.Println("EnsureMemberPlaceIndexes: creating member_place_unique index")
	_, err := db.Collection("member_places").Indexes().CreateOne(ctx, pairIndex)
	if err != nil {
		log.Println("EnsureMemberPlaceIndexes: member_place index error:", err)
		return err
	}
	return nil
}

func EnsureContentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	urlIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "originalUrl", Value: 1}},
		Options: options.Index().
			SetName("original_url_unique").
			SetUnique(true),
	}

	log.Println("EnsureContentIndexes: creating original_url_unique index")
	if _, err := db.Collection("contents").Indexes().CreateOne(ctx, urlIndex); err != nil {
		log.Println("EnsureContentIndexes: originalUrl index error:", err)
		return err
	}

	contentPlaceIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "contentId", Value: 1},
			{Key: "placeId", Value: 1},
		},
		Options: options.Index().
			SetName("content_place_unique").
			SetUnique(true),
	}

	log.Println("EnsureContentIndexes: creating content_place_unique index")
	if _, err := db.Collection("content_places").Indexes().CreateOne(ctx, contentPlaceIndex); err != nil {
		log.Println("EnsureContentIndexes: content_place index error:", err)
		return err
	}

	contentMemberIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "contentId", Value: 1},
			{Key: "memberId", Value: 1},
		},
		Options: options.Index().
			SetName("content_member_unique").
			SetUnique(true),
	}

	log.Println("EnsureContentIndexes: creating content_member_unique index")
	if _, err := db.Collection("content_members").Indexes().CreateOne(ctx, contentMemberIndex); err != nil {
		log.Println("EnsureContentIndexes: content_member index error:", err)
		return err
	}
	return nil
}

func EnsureRefreshTokenIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hashIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "tokenHash", Value: 1}},
		Options: options.Index().
			SetName("token_hash_unique").
			SetUnique(true),
	}

	log.Println("EnsureRefreshTokenIndexes: creating token_hash_unique index")
	_, err := db.Collection("refresh_tokens").Indexes().CreateOne(ctx, hashIndex)
	if err != nil {
		log.Println("EnsureRefreshTokenIndexes: tokenHash index error:", err)
		return err
	}
	return nil
}
