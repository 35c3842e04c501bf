package handlers

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var nicknameAdjectives = []string{
	"brave", "calm", "clever", "cozy", "curious", "gentle", "happy",
	"lucky", "mellow", "quick", "quiet", "sunny", "swift", "witty",
}

var nicknameAnimals = []string{
	"badger", "cat", "dolphin", "falcon", "fox", "koala", "otter",
	"owl", "panda", "rabbit", "seal", "tiger", "whale", "wolf",
}

func randomNickname() string {
	return nicknameAdjectives[rand.Intn(len(nicknameAdjectives))] +
		"-" + nicknameAnimals[rand.Intn(len(nicknameAnimals))]
}

// generateUniqueNickname builds a display name for a brand-new member. After
// a few collisions it escalates to a uuid-derived suffix, which is unique
// enough in practice; the partial unique index on name is the backstop.
func generateUniqueNickname(ctx context.Context, db *mongo.Database) (string, error) {
	const maxAttempts = 100

	for attempts := 1; attempts <= maxAttempts; attempts++ {
		nickname := randomNickname()
		if attempts > 10 {
			suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
			nickname = fmt.Sprintf("%s-%s", nickname, suffix)
		}

		count, err := db.Collection("members").CountDocuments(ctx, bson.M{"name": nickname})
		if err != nil {
			return "", err
		}
		if count == 0 {
			log.Printf("[AUTH] generated nickname %q in %d attempt(s)", nickname, attempts)
			return nickname, nil
		}
	}

	return "", fmt.Errorf("could not generate a unique nickname in %d attempts", maxAttempts)
}
