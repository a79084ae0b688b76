package domain

import "time"

const (
	DefaultTripName = "default"
	DefaultCategory = "Sonstiges"

	// ReservedTripName is the key holding the last-used trip name in the
	// blob layout; no trip may use it.
	ReservedTripName = "__lastTrip"
)

// Trip is the persisted record for one named trip. It is always written
// back wholesale.
type Trip struct {
	FreeText string     `json:"freeText"`
	Stops    []string   `json:"stops"`
	Pack     []PackItem `json:"pack"`
	SavedAt  time.Time  `json:"savedAt"`
}

// PackItem is one checklist entry. Identity is ID.
type PackItem struct {
	ID       string `json:"id"`
	Category string `json:"cat"`
	Text     string `json:"text"`
	Done     bool   `json:"done"`
	Qty      int    `json:"qty"`
}

// RawPackItem is an item as it arrives from a client or an old blob;
// Done and Qty may hold any JSON value.
type RawPackItem struct {
	ID       string `json:"id,omitempty"`
	Category string `json:"cat,omitempty"`
	Text     string `json:"text"`
	Done     any    `json:"done,omitempty"`
	Qty      any    `json:"qty,omitempty"`
}
