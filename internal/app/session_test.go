package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"routegen/internal/app"
	"routegen/internal/domain"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTrips() (*app.TripService, *fakeRepo) {
	repo := newFakeRepo()
	return app.NewTripService(repo).WithClock(func() time.Time { return fixedNow }), repo
}

func TestNormalizeName(t *testing.T) {
	if got := app.NormalizeName("   "); got != "default" {
		t.Fatalf("NormalizeName(blank) = %q", got)
	}
	if got := app.NormalizeName(" Sommer "); got != "Sommer" {
		t.Fatalf("NormalizeName = %q", got)
	}
}

func TestLoad_EmptyTripHasTwoStopSlots(t *testing.T) {
	svc, _ := newTrips()
	v, err := svc.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if v.Name != "default" || len(v.Stops) != 2 || v.Stops[0] != "" || v.SavedAt != nil {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestSave_ThenLoad(t *testing.T) {
	svc, repo := newTrips()
	ctx := context.Background()

	_, err := svc.Save(ctx, " Sommer ", app.TripInput{
		FreeText: "Zürich - Bern",
		Stops:    []string{" Zürich ", "", "Bern"},
		Pack:     []domain.RawPackItem{{Text: "Kamera", Qty: "2"}, {Text: " "}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if repo.last != "Sommer" {
		t.Fatalf("expected last trip to be remembered, got %q", repo.last)
	}

	v, err := svc.Load(ctx, "Sommer")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(v.Stops) != 2 || v.Stops[0] != "Zürich" || v.Stops[1] != "Bern" {
		t.Fatalf("unexpected stops: %v", v.Stops)
	}
	if len(v.Pack) != 1 || v.Pack[0].Qty != 2 || v.Pack[0].Category != "Sonstiges" {
		t.Fatalf("unexpected pack: %+v", v.Pack)
	}
	if v.SavedAt == nil || !v.SavedAt.Equal(fixedNow) {
		t.Fatalf("unexpected savedAt: %v", v.SavedAt)
	}

	last, _ := svc.LastTrip(ctx)
	if last != "Sommer" {
		t.Fatalf("LastTrip = %q", last)
	}
}

func TestLastTrip_DefaultsWhenUnset(t *testing.T) {
	svc, _ := newTrips()
	if got, _ := svc.LastTrip(context.Background()); got != "default" {
		t.Fatalf("LastTrip = %q", got)
	}
	_ = svc.RememberTrip(context.Background(), "Winter")
	if got, _ := svc.LastTrip(context.Background()); got != "Winter" {
		t.Fatalf("LastTrip = %q", got)
	}
}

func TestPackMutations_AutosaveEachStep(t *testing.T) {
	svc, repo := newTrips()
	ctx := context.Background()

	items, err := svc.ApplyPreset(ctx, "Foto", "photo")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if len(items) != 11 {
		t.Fatalf("expected 11 photo items, got %d", len(items))
	}

	added, err := svc.AddItem(ctx, "Foto", "Technik", "Drohne", 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	done := true
	qty := 3
	upd, err := svc.UpdateItem(ctx, "Foto", added.ID, app.ItemPatch{Done: &done, Qty: &qty})
	if err != nil || !upd.Done || upd.Qty != 3 || upd.ID != added.ID {
		t.Fatalf("UpdateItem = %+v, %v", upd, err)
	}
	if err := svc.RemoveItem(ctx, "Foto", items[0].ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if n := repo.saveCount(); n != 4 {
		t.Fatalf("expected 4 whole-record saves, got %d", n)
	}

	v, _ := svc.Load(ctx, "Foto")
	if len(v.Pack) != 11 {
		t.Fatalf("expected 11 items after add+remove, got %d", len(v.Pack))
	}
	if v.Pack[len(v.Pack)-1].Text != "Drohne" || !v.Pack[len(v.Pack)-1].Done {
		t.Fatalf("unexpected last item: %+v", v.Pack[len(v.Pack)-1])
	}

	// applying a preset replaces, never merges
	items, _ = svc.ApplyPreset(ctx, "Foto", "hike")
	v, _ = svc.Load(ctx, "Foto")
	if len(v.Pack) != len(items) {
		t.Fatalf("expected preset to replace the list, got %d items", len(v.Pack))
	}

	if err := svc.ClearPack(ctx, "Foto"); err != nil {
		t.Fatalf("ClearPack: %v", err)
	}
	v, _ = svc.Load(ctx, "Foto")
	if len(v.Pack) != 0 || len(v.Groups) != 0 {
		t.Fatalf("expected empty pack, got %+v", v.Pack)
	}
}

func TestPackMutations_Rejections(t *testing.T) {
	svc, repo := newTrips()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "x", "Technik", "  ", 1); !errors.Is(err, domain.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := svc.ApplyPreset(ctx, "x", "beach"); !errors.Is(err, domain.ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	if err := svc.RemoveItem(ctx, "x", "nope"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	it, _ := svc.AddItem(ctx, "x", "", "Zelt", 1)
	zero := 0
	if _, err := svc.UpdateItem(ctx, "x", it.ID, app.ItemPatch{Qty: &zero}); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if n := repo.saveCount(); n != 1 {
		t.Fatalf("rejected mutations must not save, got %d saves", n)
	}
}

func TestExportPack(t *testing.T) {
	svc, _ := newTrips()
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "Tour de Suisse", "Technik", "Kamera", 2)

	file, body, err := svc.ExportPack(ctx, "Tour de Suisse")
	if err != nil {
		t.Fatalf("ExportPack: %v", err)
	}
	if file != "packliste_Tour_de_Suisse.txt" {
		t.Fatalf("file = %q", file)
	}
	if !strings.Contains(body, "## Technik\n- [ ] Kamera (x2)") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func TestStops_FieldsBeforeFreeText(t *testing.T) {
	svc, _ := newTrips()
	ctx := context.Background()
	_, _ = svc.Save(ctx, "a", app.TripInput{FreeText: "Chur, Davos"})
	got, _ := svc.Stops(ctx, "a")
	if len(got) != 2 || got[0] != "Chur" {
		t.Fatalf("expected free-text stops, got %v", got)
	}
	_, _ = svc.Save(ctx, "a", app.TripInput{FreeText: "Chur, Davos", Stops: []string{"Lugano"}})
	got, _ = svc.Stops(ctx, "a")
	if len(got) != 1 || got[0] != "Lugano" {
		t.Fatalf("expected discrete stops, got %v", got)
	}
}

func TestLoad_RepoError(t *testing.T) {
	svc, repo := newTrips()
	repo.err = errors.New("disk gone")
	if _, err := svc.Load(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestReservedTripNameRejected(t *testing.T) {
	svc, repo := newTrips()
	ctx := context.Background()

	if _, err := svc.Save(ctx, " __lastTrip ", app.TripInput{Stops: []string{"Bern"}}); !errors.Is(err, domain.ErrReservedName) {
		t.Fatalf("Save: expected ErrReservedName, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "__lastTrip", "", "Zelt", 1); !errors.Is(err, domain.ErrReservedName) {
		t.Fatalf("AddItem: expected ErrReservedName, got %v", err)
	}
	if err := svc.RememberTrip(ctx, "__lastTrip"); !errors.Is(err, domain.ErrReservedName) {
		t.Fatalf("RememberTrip: expected ErrReservedName, got %v", err)
	}
	if _, err := svc.Load(ctx, "__lastTrip"); !errors.Is(err, domain.ErrReservedName) {
		t.Fatalf("Load: expected ErrReservedName, got %v", err)
	}
	if repo.saveCount() != 0 || repo.last != "" {
		t.Fatalf("reserved name must not reach the store: saves=%d last=%q", repo.saveCount(), repo.last)
	}
}
