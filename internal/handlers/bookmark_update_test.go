package handlers

import (
	"testing"
	"time"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestResolveBookmarkUpdateEmptyInputIsNoop(t *testing.T) {
	update, err := resolveBookmarkUpdate(bookmarkUpdateInput{}, time.Now())
	if err != nil {
		t.Fatalf("resolveBookmarkUpdate returned error: %v", err)
	}
	if len(update) != 0 {
		t.Fatalf("expected empty update, got %v", update)
	}
}

func TestResolveBookmarkUpdateRatingBounds(t *testing.T) {
	now := time.Now()
	for _, rating := range []int{0, 6, -1} {
		if _, err := resolveBookmarkUpdate(bookmarkUpdateInput{Rating: intPtr(rating)}, now); err == nil {
			t.Fatalf("expected error for rating=%d", rating)
		}
	}
	for _, rating := range []int{1, 5} {
		update, err := resolveBookmarkUpdate(bookmarkUpdateInput{Rating: intPtr(rating)}, now)
		if err != nil {
			t.Fatalf("unexpected error for rating=%d: %v", rating, err)
		}
		if update["rating"] != rating {
			t.Fatalf("expected rating %d in update, got %v", rating, update["rating"])
		}
	}
}

func TestResolveBookmarkUpdateVisitedStampsVisitedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	update, err := resolveBookmarkUpdate(bookmarkUpdateInput{Visited: boolPtr(true)}, now)
	if err != nil {
		t.Fatalf("resolveBookmarkUpdate returned error: %v", err)
	}
	if update["visited"] != true {
		t.Fatalf("expected visited=true, got %v", update["visited"])
	}
	if update["visitedAt"] != now {
		t.Fatalf("expected visitedAt=%v, got %v", now, update["visitedAt"])
	}

	visitedAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	update, err = resolveBookmarkUpdate(bookmarkUpdateInput{Visited: boolPtr(true), VisitedAt: &visitedAt}, now)
	if err != nil {
		t.Fatalf("resolveBookmarkUpdate returned error: %v", err)
	}
	if update["visitedAt"] != visitedAt {
		t.Fatalf("expected client visitedAt=%v, got %v", visitedAt, update["visitedAt"])
	}

	update, err = resolveBookmarkUpdate(bookmarkUpdateInput{Visited: boolPtr(false)}, now)
	if err != nil {
		t.Fatalf("resolveBookmarkUpdate returned error: %v", err)
	}
	if update["visited"] != false {
		t.Fatalf("expected visited=false, got %v", update["visited"])
	}
	if update["visitedAt"] != nil {
		t.Fatalf("expected visitedAt cleared, got %v", update["visitedAt"])
	}
}

func TestResolveBookmarkUpdateFolderTrimmedAndRequired(t *testing.T) {
	now := time.Now()

	if _, err := resolveBookmarkUpdate(bookmarkUpdateInput{Folder: strPtr("   ")}, now); err == nil {
		t.Fatal("expected error for blank folder")
	}

	update, err := resolveBookmarkUpdate(bookmarkUpdateInput{Folder: strPtr("  trips  ")}, now)
	if err != nil {
		t.Fatalf("resolveBookmarkUpdate returned error: %v", err)
	}
	if update["folder"] != "trips" {
		t.Fatalf("expected trimmed folder, got %q", update["folder"])
	}
}

func TestResolveBookmarkUpdateMemoCanBeCleared(t *testing.T) {
	update, err := resolveBookmarkUpdate(bookmarkUpdateInput{Memo: strPtr("")}, time.Now())
	if err != nil {
		t.Fatalf("resolveBookmarkUpdate returned error: %v", err)
	}
	if memo, ok := update["memo"]; !ok || memo != "" {
		t.Fatalf("expected memo cleared to empty string, got %v", update)
	}
}
