package app

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"routegen/internal/domain"
)

const EmptyPackMessage = "Noch kei Items. Wähle es Preset oder füeg eis hinzu."

type PackGroup struct {
	Category string            `json:"category"`
	Items    []domain.PackItem `json:"items"`
}

// NormalizePack assigns missing ids and categories, trims text (dropping
// empty items) and coerces done/qty. Running it on its own output is a no-op.
func NormalizePack(raw []domain.RawPackItem) []domain.PackItem {
	out := make([]domain.PackItem, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		id := r.ID
		if id == "" {
			id = domain.NewID()
		}
		cat := strings.TrimSpace(r.Category)
		if cat == "" {
			cat = domain.DefaultCategory
		}
		out = append(out, domain.PackItem{
			ID:       id,
			Category: cat,
			Text:     text,
			Done:     coerceBool(r.Done),
			Qty:      coerceQty(r.Qty),
		})
	}
	return out
}

// ToRaw converts typed items back into normalization input.
func ToRaw(items []domain.PackItem) []domain.RawPackItem {
	out := make([]domain.RawPackItem, len(items))
	for i, it := range items {
		out[i] = domain.RawPackItem{ID: it.ID, Category: it.Category, Text: it.Text, Done: it.Done, Qty: it.Qty}
	}
	return out
}

// GroupPack buckets items by category; categories use German collation and
// items keep their order within a category.
func GroupPack(items []domain.PackItem) []PackGroup {
	idx := map[string]int{}
	var groups []PackGroup
	for _, it := range items {
		i, ok := idx[it.Category]
		if !ok {
			i = len(groups)
			idx[it.Category] = i
			groups = append(groups, PackGroup{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	cats := make([]string, len(groups))
	for i, g := range groups {
		cats[i] = g.Category
	}
	sortCategories(cats)

	out := make([]PackGroup, 0, len(groups))
	for _, c := range cats {
		out = append(out, groups[idx[c]])
	}
	return out
}

func sortCategories(cats []string) {
	// Collator is not safe for concurrent use.
	collate.New(language.German).SortStrings(cats)
}

// ---- presets ----

type presetEntry struct{ cat, text string }

var presets = map[string][]presetEntry{
	"roadtrip": {
		{"Dokumente", "ID/Pass"}, {"Dokumente", "Führerausweis"}, {"Dokumente", "Kreditkarte"}, {"Dokumente", "Versicherung/Notfallnummern"},
		{"Technik", "Handy + Ladekabel"}, {"Technik", "Powerbank"}, {"Technik", "Adapter"}, {"Technik", "Kopfhörer"},
		{"Outdoor", "Sonnenbrille"}, {"Outdoor", "Trinkflasche"}, {"Outdoor", "Taschenmesser"}, {"Outdoor", "Regenschutz"},
		{"Hygiene", "Zahnbürste"}, {"Hygiene", "Sonnencreme"}, {"Hygiene", "Reiseapotheke"},
		{"Kleidung", "Jacke"}, {"Kleidung", "Wechselshirt"}, {"Kleidung", "Socken/Unterwäsche"},
	},
	"hike": {
		{"Outdoor", "Rucksack"}, {"Outdoor", "Regenjacke"}, {"Outdoor", "Wanderschuhe"}, {"Outdoor", "Stirnlampe"},
		{"Outdoor", "1. Hilfe"}, {"Outdoor", "Snacks"}, {"Outdoor", "Karte/Offline Maps"}, {"Outdoor", "Trekkingstöcke"},
		{"Technik", "Handy + Ladekabel"}, {"Technik", "Powerbank"},
		{"Kleidung", "Funktionsshirt"}, {"Kleidung", "Fleece"}, {"Kleidung", "Mütze/Handschuhe"}, {"Kleidung", "Wechselsocken"},
		{"Hygiene", "Blasenpflaster"}, {"Dokumente", "Notfallkontakt"},
	},
	"photo": {
		{"Technik", "Kamera"}, {"Technik", "Ersatzakku"}, {"Technik", "SD-Karten"}, {"Technik", "Ladegerät"},
		{"Technik", "Stativ"}, {"Technik", "Reinigung (Blasebalg/Tuch)"},
		{"Outdoor", "Regenschutz (Kamera)"}, {"Outdoor", "Mückenspray"},
		{"Kleidung", "Warme Schicht"}, {"Kleidung", "Regenjacke"},
		{"Dokumente", "Versicherung/Seriennummern"},
	},
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PresetItems returns fresh, undone items with quantity 1.
func PresetItems(name string) ([]domain.PackItem, error) {
	entries, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPreset, name)
	}
	items := make([]domain.PackItem, len(entries))
	for i, e := range entries {
		items[i] = domain.PackItem{ID: domain.NewID(), Category: e.cat, Text: e.text, Qty: 1}
	}
	return items, nil
}

// ---- export ----

// ExportPack renders a markdown checklist, one section per category.
func ExportPack(trip string, items []domain.PackItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Packliste – %s\n\n", trip)
	for _, g := range GroupPack(items) {
		fmt.Fprintf(&b, "## %s\n", g.Category)
		for _, it := range g.Items {
			mark := " "
			if it.Done {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s (x%d)\n", mark, it.Text, it.Qty)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func ExportFilename(trip string) string {
	return "packliste_" + strings.ReplaceAll(trip, " ", "_") + ".txt"
}
