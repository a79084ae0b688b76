package app

import (
	"regexp"
	"strings"

	"routegen/internal/domain"
)

const (
	DefaultMapsBase = "https://www.google.com/maps"
	routeSeparator  = " → "
)

type Route struct {
	Stops []string `json:"stops"`
	Text  string   `json:"text"`
	URL   string   `json:"url"`
}

var freeTextSep = regexp.MustCompile(`-|,|\r?\n`)

// ParseFreeText splits a free-text itinerary on hyphens, commas and newlines.
func ParseFreeText(text string) []string {
	return cleanStops(freeTextSep.Split(text, -1))
}

// SelectStops prefers the discrete stop fields and falls back to free text.
func SelectStops(fields []string, freeText string) []string {
	if stops := cleanStops(fields); len(stops) > 0 {
		return stops
	}
	return ParseFreeText(freeText)
}

func cleanStops(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RouteFormatter builds map-service deep links under a fixed base.
type RouteFormatter struct{ base string }

func NewRouteFormatter(mapsBase string) *RouteFormatter {
	if mapsBase == "" {
		mapsBase = DefaultMapsBase
	}
	return &RouteFormatter{base: strings.TrimRight(mapsBase, "/")}
}

// BuildRoute formats stops against the default maps base.
func BuildRoute(stops []string) (Route, error) {
	return NewRouteFormatter(DefaultMapsBase).Build(stops)
}

// Build needs at least two non-empty stops.
func (f *RouteFormatter) Build(stops []string) (Route, error) {
	stops = cleanStops(stops)
	if len(stops) < 2 {
		return Route{}, domain.ErrInsufficientStops
	}
	segs := make([]string, len(stops))
	for i, s := range stops {
		segs[i] = EncodeStop(s)
	}
	return Route{
		Stops: stops,
		Text:  strings.Join(stops, routeSeparator),
		URL:   f.base + "/dir/" + strings.Join(segs, "/"),
	}, nil
}

// EncodeStop percent-encodes one route segment with spaces as '+'.
func EncodeStop(s string) string {
	return strings.ReplaceAll(encodeURIComponent(strings.TrimSpace(s)), "%20", "+")
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepUnescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keepUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
