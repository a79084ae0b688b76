package blob_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"routegen/internal/domain"
	"routegen/internal/storage/blob"
)

func TestStore_TripRoundTripAndLastTrip(t *testing.T) {
	kv := blob.NewMemoryKV()
	s := blob.New(kv)
	ctx := context.Background()

	if _, err := s.LoadTrip(ctx, "Sommer"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in := domain.Trip{
		FreeText: "Zürich - Luzern",
		Stops:    []string{"Zürich", "Luzern"},
		Pack:     []domain.PackItem{{ID: "a", Category: "Technik", Text: "Kamera", Qty: 1}},
		SavedAt:  time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
	if err := s.SaveTrip(ctx, "Sommer", in); err != nil {
		t.Fatalf("SaveTrip: %v", err)
	}
	if err := s.SetLastTrip(ctx, "Sommer"); err != nil {
		t.Fatalf("SetLastTrip: %v", err)
	}

	got, err := s.LoadTrip(ctx, "Sommer")
	if err != nil {
		t.Fatalf("LoadTrip: %v", err)
	}
	if got.FreeText != in.FreeText || len(got.Stops) != 2 || got.Pack[0].Text != "Kamera" || !got.SavedAt.Equal(in.SavedAt) {
		t.Fatalf("unexpected trip: %+v", got)
	}

	last, _ := s.LastTrip(ctx)
	if last != "Sommer" {
		t.Fatalf("LastTrip = %q", last)
	}
	names, _ := s.ListTrips(ctx)
	if len(names) != 1 || names[0] != "Sommer" {
		t.Fatalf("ListTrips = %v", names)
	}

	// the blob keeps the documented layout
	raw, _, _ := kv.GetRaw(ctx, blob.TripsKey)
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("blob is not JSON: %v", err)
	}
	if string(doc["__lastTrip"]) != `"Sommer"` {
		t.Fatalf("unexpected __lastTrip entry: %s", doc["__lastTrip"])
	}
}

func TestStore_CorruptedBlobFallsBackToEmpty(t *testing.T) {
	kv := blob.NewMemoryKV()
	ctx := context.Background()
	_ = kv.SetRaw(ctx, blob.TripsKey, "{not json")
	_ = kv.SetRaw(ctx, blob.CoordsKey, "[1,2")
	s := blob.New(kv)

	if _, err := s.LoadTrip(ctx, "default"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if c, err := s.LookupCoord(ctx, "bern"); c != nil || err != nil {
		t.Fatalf("expected empty cache, got %+v %v", c, err)
	}
	if err := s.SaveTrip(ctx, "default", domain.Trip{Stops: []string{"A", "B"}}); err != nil {
		t.Fatalf("SaveTrip over corrupted blob: %v", err)
	}
	if got, err := s.LoadTrip(ctx, "default"); err != nil || len(got.Stops) != 2 {
		t.Fatalf("unexpected trip after recovery: %+v %v", got, err)
	}
}

func TestStore_CoordsWriteOnceAndDelete(t *testing.T) {
	s := blob.New(blob.NewMemoryKV())
	ctx := context.Background()

	first := domain.Coord{Name: "Bern", Country: "Schweiz", Lat: 46.9, Lon: 7.4}
	if err := s.StoreCoord(ctx, "bern", first); err != nil {
		t.Fatalf("StoreCoord: %v", err)
	}
	_ = s.StoreCoord(ctx, "bern", domain.Coord{Name: "Bern", Country: "USA"})

	got, err := s.LookupCoord(ctx, "bern")
	if err != nil || got == nil || got.Country != "Schweiz" {
		t.Fatalf("expected first write to win, got %+v %v", got, err)
	}

	if err := s.DeleteCoord(ctx, "bern"); err != nil {
		t.Fatalf("DeleteCoord: %v", err)
	}
	if got, _ := s.LookupCoord(ctx, "bern"); got != nil {
		t.Fatalf("expected entry gone, got %+v", got)
	}
}

func TestStore_ReservedNameCannotClobberLastTrip(t *testing.T) {
	s := blob.New(blob.NewMemoryKV())
	ctx := context.Background()

	if err := s.SetLastTrip(ctx, "Sommer"); err != nil {
		t.Fatalf("SetLastTrip: %v", err)
	}
	if err := s.SaveTrip(ctx, "__lastTrip", domain.Trip{Stops: []string{"Bern"}}); !errors.Is(err, domain.ErrReservedName) {
		t.Fatalf("SaveTrip: expected ErrReservedName, got %v", err)
	}
	if err := s.SetLastTrip(ctx, "__lastTrip"); !errors.Is(err, domain.ErrReservedName) {
		t.Fatalf("SetLastTrip: expected ErrReservedName, got %v", err)
	}
	if last, _ := s.LastTrip(ctx); last != "Sommer" {
		t.Fatalf("LastTrip = %q", last)
	}
}
