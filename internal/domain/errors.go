package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStops = errors.New("insufficient stops")
	ErrNoStops           = errors.New("no stops")
	ErrEmptyText         = errors.New("item text must not be empty")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrUnknownPreset     = errors.New("unknown preset")
	ErrItemNotFound      = errors.New("pack item not found")
	ErrReservedName      = errors.New("trip name is reserved")
)
