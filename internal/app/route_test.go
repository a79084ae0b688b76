package app_test

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"routegen/internal/app"
	"routegen/internal/domain"
)

func TestParseFreeText(t *testing.T) {
	got := app.ParseFreeText("A - B, C\nD")
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseFreeText = %v, want %v", got, want)
	}
	if got := app.ParseFreeText(" ,\r\n - "); len(got) != 0 {
		t.Fatalf("expected no stops, got %v", got)
	}
}

func TestSelectStops_FieldsWin(t *testing.T) {
	if got := app.SelectStops([]string{" Bern ", ""}, "Zürich, Basel"); !reflect.DeepEqual(got, []string{"Bern"}) {
		t.Fatalf("expected discrete stops, got %v", got)
	}
	if got := app.SelectStops([]string{"", "  "}, "Zürich, Basel"); !reflect.DeepEqual(got, []string{"Zürich", "Basel"}) {
		t.Fatalf("expected free-text stops, got %v", got)
	}
}

func TestBuildRoute(t *testing.T) {
	f := app.NewRouteFormatter("")
	r, err := f.Build([]string{" Zürich HB ", "", "St. Moritz", "Lago di Como"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.Text != "Zürich HB → St. Moritz → Lago di Como" {
		t.Fatalf("unexpected text: %q", r.Text)
	}
	want := "https://www.google.com/maps/dir/Z%C3%BCrich+HB/St.+Moritz/Lago+di+Como"
	if r.URL != want {
		t.Fatalf("URL = %q, want %q", r.URL, want)
	}
}

func TestBuildRoute_SegmentsRoundTrip(t *testing.T) {
	stops := []string{"Chur / Arosa", "Café (Ost)", "a+b & c?", "100% Alp", "O'Brien's"}
	r, err := app.NewRouteFormatter("https://maps.example").Build(stops)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	path := strings.TrimPrefix(r.URL, "https://maps.example/dir/")
	segs := strings.Split(path, "/")
	if len(segs) != len(stops) {
		t.Fatalf("got %d segments, want %d (%s)", len(segs), len(stops), path)
	}
	for i, seg := range segs {
		dec, err := url.QueryUnescape(seg)
		if err != nil {
			t.Fatalf("segment %q: %v", seg, err)
		}
		if dec != stops[i] {
			t.Fatalf("segment %d decodes to %q, want %q", i, dec, stops[i])
		}
	}
}

func TestBuildRoute_InsufficientStops(t *testing.T) {
	f := app.NewRouteFormatter("")
	for _, in := range [][]string{nil, {"Bern"}, {"Bern", "  "}} {
		r, err := f.Build(in)
		if !errors.Is(err, domain.ErrInsufficientStops) {
			t.Fatalf("Build(%v) err = %v", in, err)
		}
		if r.URL != "" || r.Text != "" {
			t.Fatalf("expected empty route, got %+v", r)
		}
	}
}

func TestSpotLinks(t *testing.T) {
	f := app.NewRouteFormatter("")
	stops := []string{"Bern", "Bern", "Thun", "A", "B", "C", "D", "E", "F", "G"}
	cards := f.SpotLinks(stops)
	if len(cards) != 8 {
		t.Fatalf("expected 8 cards, got %d", len(cards))
	}
	if cards[0].Stop != "Bern" || cards[1].Stop != "Thun" {
		t.Fatalf("expected deduplicated order, got %s, %s", cards[0].Stop, cards[1].Stop)
	}
	if len(cards[0].Links) != 4 {
		t.Fatalf("expected 4 links, got %d", len(cards[0].Links))
	}
	l := cards[0].Links[1]
	if l.Label != "Wasserfälle" || l.URL != "https://www.google.com/maps/search/waterfall%20near%20Bern" {
		t.Fatalf("unexpected link: %+v", l)
	}
	if got := f.SpotLinks(nil); len(got) != 0 {
		t.Fatalf("expected no cards, got %v", got)
	}
}
