package handlers

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type bookmarkUpdateInput struct {
	Folder    *string
	Memo      *string
	Rating    *int
	Visited   *bool
	VisitedAt *time.Time
}

// resolveBookmarkUpdate turns a partial bookmark patch into the fields to
// persist. Clearing visited also clears visitedAt; marking visited stamps
// visitedAt with the client-supplied timestamp, or now when none was sent.
// An all-nil input resolves to an empty update.
func resolveBookmarkUpdate(input bookmarkUpdateInput, now time.Time) (bson.M, error) {
	update := bson.M{}

	if input.Folder != nil {
		folder := strings.TrimSpace(*input.Folder)
		if folder == "" {
			return nil, fmt.Errorf("folder must not be empty")
		}
		update["folder"] = folder
	}

	if input.Memo != nil {
		update["memo"] = strings.TrimSpace(*input.Memo)
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, fmt.Errorf("rating must be between 1 and 5")
		}
		update["rating"] = *input.Rating
	}

	if input.Visited != nil {
		update["visited"] = *input.Visited
		if *input.Visited {
			if input.VisitedAt != nil {
				update["visitedAt"] = *input.VisitedAt
			} else {
				update["visitedAt"] = now
			}
		} else {
			update["visitedAt"] = nil
		}
	}

	return update, nil
}
