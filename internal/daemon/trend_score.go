// Package daemon holds the in-process background loops.
package daemon

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// TrendScorer periodically recomputes keyword trend scores from the growth
// of the usage counter since the previous tick.
type TrendScorer struct {
	Coll     *mongo.Collection
	Interval time.Duration
}

func NewTrendScorer(db *mongo.Database, interval time.Duration) *TrendScorer {
	return &TrendScorer{
		Coll:     db.Collection("keywords"),
		Interval: interval,
	}
}

// Start launches the scoring loop. Cancelling ctx stops it after the
// current pass.
func (t *TrendScorer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[TREND] scorer stopped")
				return
			case <-ticker.C:
				t.runOnce(ctx)
			}
		}
	}()
}

func (t *TrendScorer) runOnce(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cursor, err := t.Coll.Find(passCtx, bson.M{})
	if err != nil {
		log.Println("[TREND] keyword query failed:", err)
		return
	}

	keywords := []models.Keyword{}
	if err := cursor.All(passCtx, &keywords); err != nil {
		log.Println("[TREND] keyword decode failed:", err)
		return
	}

	updated := 0
	for _, keyword := range keywords {
		score := TrendScore(keyword.Count, keyword.PrevCount)
		if _, err := t.Coll.UpdateByID(passCtx, keyword.ID, bson.M{
			"$set": bson.M{
				"trendScore": score,
				"prevCount":  keyword.Count,
			},
		}); err != nil {
			log.Printf("[TREND] update failed for keyword %q: %v", keyword.Keyword, err)
			continue
		}
		updated++
	}

	log.Printf("[TREND] pass complete: %d/%d keywords scored", updated, len(keywords))
}

// TrendScore is the growth rate of the counter since the last pass. A
// keyword first seen in this window scores its full count, so brand-new
// keywords can trend.
func TrendScore(count, prevCount int) float64 {
	if prevCount <= 0 {
		return float64(count)
	}
	return float64(count-prevCount) / float64(prevCount)
}
