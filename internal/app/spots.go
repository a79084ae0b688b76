package app

const maxSpotStops = 8

type SpotLink struct {
	Label string `json:"label"`
	Query string `json:"query"`
	URL   string `json:"url"`
}

type SpotCard struct {
	Stop  string     `json:"stop"`
	Links []SpotLink `json:"links"`
}

var spotKinds = []struct{ label, prefix string }{
	{"Viewpoints", "viewpoint near "},
	{"Wasserfälle", "waterfall near "},
	{"Wanderung", "hike trail near "},
	{"Fotospot", "photo spot near "},
}

// SpotLinks builds nearby-search links for the first eight distinct stops.
// No network access is involved.
func (f *RouteFormatter) SpotLinks(stops []string) []SpotCard {
	seen := map[string]bool{}
	cards := []SpotCard{}
	for _, s := range cleanStops(stops) {
		if seen[s] {
			continue
		}
		seen[s] = true

		card := SpotCard{Stop: s, Links: make([]SpotLink, 0, len(spotKinds))}
		for _, k := range spotKinds {
			q := k.prefix + s
			card.Links = append(card.Links, SpotLink{
				Label: k.label,
				Query: q,
				URL:   f.base + "/search/" + encodeURIComponent(q),
			})
		}
		cards = append(cards, card)
		if len(cards) == maxSpotStops {
			break
		}
	}
	return cards
}
