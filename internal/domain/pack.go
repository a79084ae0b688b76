package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewPackItem validates its input and returns a fresh item with a new id.
// An empty category falls back to DefaultCategory.
func NewPackItem(category, text string, qty int) (PackItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return PackItem{}, ErrEmptyText
	}
	if qty < 1 {
		return PackItem{}, ErrInvalidQuantity
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	return PackItem{ID: NewID(), Category: category, Text: text, Qty: qty}, nil
}

func NewID() string { return uuid.NewString() }
