package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestResolveCallbackContentIDPrefersTopLevel(t *testing.T) {
	req := AiCallbackRequest{
		ContentID:   "top",
		ContentInfo: &AiContentInfo{ContentID: "nested"},
	}
	id, ok := resolveCallbackContentID(req)
	if !ok || id != "top" {
		t.Fatalf("expected top-level id, got %q ok=%v", id, ok)
	}
}

func TestResolveCallbackContentIDFallsBackToNested(t *testing.T) {
	req := AiCallbackRequest{ContentInfo: &AiContentInfo{ContentID: "nested"}}
	id, ok := resolveCallbackContentID(req)
	if !ok || id != "nested" {
		t.Fatalf("expected nested id, got %q ok=%v", id, ok)
	}

	if _, ok := resolveCallbackContentID(AiCallbackRequest{}); ok {
		t.Fatal("expected no id for empty request")
	}
}

func TestPartitionCallbackPlacesSkipsBadCoordinates(t *testing.T) {
	places := []AiPlaceInfo{
		{Name: "Good Cafe", Latitude: floatPtr(37.5665), Longitude: floatPtr(126.9780)},
		{Name: "No Coords"},
		{Name: "Out Of Range", Latitude: floatPtr(91.0), Longitude: floatPtr(0)},
		{Name: "Another Good", Latitude: floatPtr(-33.8688), Longitude: floatPtr(151.2093)},
	}

	valid, skipped := partitionCallbackPlaces(places)
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid places, got %d", len(valid))
	}
	if valid[0].Name != "Good Cafe" || valid[1].Name != "Another Good" {
		t.Fatalf("unexpected valid places: %v", valid)
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped places, got %v", skipped)
	}
}

func TestPartitionCallbackPlacesTrimsNames(t *testing.T) {
	valid, skipped := partitionCallbackPlaces([]AiPlaceInfo{
		{Name: "  Cafe  ", Latitude: floatPtr(1), Longitude: floatPtr(2)},
		{Name: "   "},
	})
	if len(valid) != 1 || valid[0].Name != "Cafe" {
		t.Fatalf("expected trimmed name, got %v", valid)
	}
	if len(skipped) != 1 || skipped[0] != "(unnamed)" {
		t.Fatalf("expected unnamed skip marker, got %v", skipped)
	}
}

func TestBuildContentMetadataUpdateMergesNonNilOnly(t *testing.T) {
	update, requestedURL, warnings := buildContentMetadataUpdate(&AiContentInfo{
		Title:      strPtr("Seoul food tour"),
		Summary:    strPtr("Five spots in Mapo"),
		ContentURL: strPtr("https://example.com/v/1"),
	})

	if update["title"] != "Seoul food tour" || update["summary"] != "Five spots in Mapo" {
		t.Fatalf("unexpected update: %v", update)
	}
	if _, ok := update["thumbnailUrl"]; ok {
		t.Fatal("thumbnailUrl should be absent when not sent")
	}
	if requestedURL == nil || *requestedURL != "https://example.com/v/1" {
		t.Fatalf("expected requested URL, got %v", requestedURL)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestBuildContentMetadataUpdateInvalidPlatformWarns(t *testing.T) {
	update, _, warnings := buildContentMetadataUpdate(&AiContentInfo{Platform: strPtr("MYSPACE")})
	if _, ok := update["platform"]; ok {
		t.Fatal("invalid platform must not enter the update")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}

	update, _, warnings = buildContentMetadataUpdate(&AiContentInfo{Platform: strPtr("YOUTUBE")})
	if update["platform"] != models.PlatformYoutube {
		t.Fatalf("expected platform set, got %v", update)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestBuildContentMetadataUpdateNilInfo(t *testing.T) {
	update, requestedURL, warnings := buildContentMetadataUpdate(nil)
	if len(update) != 0 || requestedURL != nil || warnings != nil {
		t.Fatalf("expected empty result for nil info, got %v %v %v", update, requestedURL, warnings)
	}
}

func TestNotificationMessageVariants(t *testing.T) {
	tests := []struct {
		placeCount int
		title      string
		wantBody   string
	}{
		{3, "", "3 places were found."},
		{1, "", "1 place was found."},
		{2, "Seoul tour", "Seoul tour - 2 places were found."},
		{0, "Seoul tour", "Seoul tour analysis is complete."},
		{0, "", "Content analysis is complete."},
	}
	for _, tt := range tests {
		title, body := notificationMessage(tt.placeCount, tt.title)
		if title != "Content analysis complete" {
			t.Errorf("unexpected title %q", title)
		}
		if body != tt.wantBody {
			t.Errorf("notificationMessage(%d, %q) body = %q, want %q", tt.placeCount, tt.title, body, tt.wantBody)
		}
	}
}

func TestNotificationDataIncludesOptionalFields(t *testing.T) {
	content := models.Content{
		ID:           primitive.NewObjectID(),
		Title:        "Seoul tour",
		ThumbnailURL: "https://cdn.example.com/t.jpg",
	}
	data := notificationData(content, 4)

	if data["type"] != "CONTENT_COMPLETE" || data["placeCount"] != "4" {
		t.Fatalf("unexpected data: %v", data)
	}
	if data["contentId"] != content.ID.Hex() {
		t.Fatalf("expected contentId %s, got %s", content.ID.Hex(), data["contentId"])
	}
	if data["title"] != "Seoul tour" || data["thumbnailUrl"] != "https://cdn.example.com/t.jpg" {
		t.Fatalf("expected optional fields, got %v", data)
	}

	bare := notificationData(models.Content{ID: primitive.NewObjectID()}, 0)
	if _, ok := bare["title"]; ok {
		t.Fatal("title should be absent for untitled content")
	}
	if _, ok := bare["thumbnailUrl"]; ok {
		t.Fatal("thumbnailUrl should be absent when empty")
	}
}

func TestPlaceUpdateFieldsNonNilOnly(t *testing.T) {
	update := placeUpdateFields(AiPlaceInfo{
		Address:  strPtr("123 Mapo-gu"),
		Category: models.StringList{"cafe", "bakery"},
	})
	if update["address"] != "123 Mapo-gu" {
		t.Fatalf("expected address, got %v", update)
	}
	if _, ok := update["phone"]; ok {
		t.Fatal("phone should be absent when nil")
	}
	if got, ok := update["types"].(models.StringList); !ok || len(got) != 2 {
		t.Fatalf("expected types slice, got %v", update["types"])
	}

	if empty := placeUpdateFields(AiPlaceInfo{}); len(empty) != 0 {
		t.Fatalf("expected empty update for empty payload, got %v", empty)
	}
}
