package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"routegen/internal/adapters/observability"
	"routegen/internal/domain"
)

// TripService loads and autosaves trip records. Every mutation writes the
// whole record back; concurrent writers to one trip are not merged.
type TripService struct {
	repo domain.TripRepository
	now  func() time.Time
}

func NewTripService(r domain.TripRepository) *TripService {
	return &TripService{repo: r, now: time.Now}
}

// WithClock replaces the save timestamp source.
func (s *TripService) WithClock(now func() time.Time) *TripService {
	s.now = now
	return s
}

// NormalizeName trims name and falls back to the default trip.
func NormalizeName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return domain.DefaultTripName
}

type TripInput struct {
	FreeText string               `json:"freeText"`
	Stops    []string             `json:"stops"`
	Pack     []domain.RawPackItem `json:"pack"`
}

type TripView struct {
	Name     string            `json:"name"`
	FreeText string            `json:"freeText"`
	Stops    []string          `json:"stops"`
	Pack     []domain.PackItem `json:"pack"`
	Groups   []PackGroup       `json:"groups"`
	SavedAt  *time.Time        `json:"savedAt,omitempty"`
}

// checkName rejects names the stores reserve for bookkeeping.
func checkName(name string) error {
	if name == domain.ReservedTripName {
		return fmt.Errorf("%w: %q", domain.ErrReservedName, name)
	}
	return nil
}

// Load returns the trip as editable state. A trip without saved stops
// comes back with two empty stop slots.
func (s *TripService) Load(ctx context.Context, name string) (TripView, error) {
	name = NormalizeName(name)
	if err := checkName(name); err != nil {
		return TripView{}, err
	}
	t, err := s.load(ctx, name)
	if err != nil {
		return TripView{}, err
	}
	v := TripView{Name: name, FreeText: t.FreeText, Stops: t.Stops}
	if len(v.Stops) == 0 {
		v.Stops = []string{"", ""}
	}
	v.Pack = NormalizePack(ToRaw(t.Pack))
	v.Groups = GroupPack(v.Pack)
	if !t.SavedAt.IsZero() {
		at := t.SavedAt
		v.SavedAt = &at
	}
	return v, nil
}

// Save overwrites the record with the given editor state.
func (s *TripService) Save(ctx context.Context, name string, in TripInput) (domain.Trip, error) {
	t := domain.Trip{
		FreeText: in.FreeText,
		Stops:    cleanStops(in.Stops),
		Pack:     NormalizePack(in.Pack),
	}
	return t, s.persist(ctx, NormalizeName(name), &t, "edit")
}

// Stops returns the stops used by weather and spot lookups: saved discrete
// stops first, free text otherwise.
func (s *TripService) Stops(ctx context.Context, name string) ([]string, error) {
	name = NormalizeName(name)
	if err := checkName(name); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return SelectStops(t.Stops, t.FreeText), nil
}

func (s *TripService) LastTrip(ctx context.Context) (string, error) {
	name, err := s.repo.LastTrip(ctx)
	if err != nil {
		return "", err
	}
	return NormalizeName(name), nil
}

func (s *TripService) RememberTrip(ctx context.Context, name string) error {
	name = NormalizeName(name)
	if err := checkName(name); err != nil {
		return err
	}
	return s.repo.SetLastTrip(ctx, name)
}

// ---- packing list mutations ----

// ApplyPreset replaces the whole packing list with the preset.
func (s *TripService) ApplyPreset(ctx context.Context, name, preset string) ([]domain.PackItem, error) {
	items, err := PresetItems(preset)
	if err != nil {
		return nil, err
	}
	t, err := s.mutate(ctx, name, "preset", func(t *domain.Trip) error {
		t.Pack = items
		return nil
	})
	return t.Pack, err
}

func (s *TripService) AddItem(ctx context.Context, name, category, text string, qty int) (domain.PackItem, error) {
	it, err := domain.NewPackItem(category, text, qty)
	if err != nil {
		return domain.PackItem{}, err
	}
	_, err = s.mutate(ctx, name, "add_item", func(t *domain.Trip) error {
		t.Pack = append(t.Pack, it)
		return nil
	})
	return it, err
}

// ItemPatch holds the fields to change; nil leaves a field as is.
type ItemPatch struct {
	Category *string `json:"cat,omitempty"`
	Text     *string `json:"text,omitempty"`
	Done     *bool   `json:"done,omitempty"`
	Qty      *int    `json:"qty,omitempty"`
}

func (s *TripService) UpdateItem(ctx context.Context, name, id string, p ItemPatch) (domain.PackItem, error) {
	var out domain.PackItem
	_, err := s.mutate(ctx, name, "edit_item", func(t *domain.Trip) error {
		i := findItem(t.Pack, id)
		if i < 0 {
			return domain.ErrItemNotFound
		}
		it := t.Pack[i]
		if p.Category != nil {
			it.Category = *p.Category
		}
		if p.Text != nil {
			it.Text = *p.Text
		}
		if p.Qty != nil {
			it.Qty = *p.Qty
		}
		if p.Done != nil {
			it.Done = *p.Done
		}
		checked, err := domain.NewPackItem(it.Category, it.Text, it.Qty)
		if err != nil {
			return err
		}
		checked.ID, checked.Done = it.ID, it.Done
		t.Pack[i] = checked
		out = checked
		return nil
	})
	return out, err
}

func (s *TripService) RemoveItem(ctx context.Context, name, id string) error {
	_, err := s.mutate(ctx, name, "remove_item", func(t *domain.Trip) error {
		i := findItem(t.Pack, id)
		if i < 0 {
			return domain.ErrItemNotFound
		}
		t.Pack = append(t.Pack[:i], t.Pack[i+1:]...)
		return nil
	})
	return err
}

func (s *TripService) ClearPack(ctx context.Context, name string) error {
	_, err := s.mutate(ctx, name, "clear_pack", func(t *domain.Trip) error {
		t.Pack = nil
		return nil
	})
	return err
}

// ExportPack returns the download file name and checklist text.
func (s *TripService) ExportPack(ctx context.Context, name string) (string, string, error) {
	name = NormalizeName(name)
	if err := checkName(name); err != nil {
		return "", "", err
	}
	t, err := s.load(ctx, name)
	if err != nil {
		return "", "", err
	}
	return ExportFilename(name), ExportPack(name, NormalizePack(ToRaw(t.Pack))), nil
}

// ---- internals ----

func findItem(items []domain.PackItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// load treats a missing record as an empty trip.
func (s *TripService) load(ctx context.Context, name string) (domain.Trip, error) {
	t, err := s.repo.LoadTrip(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Trip{}, nil
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("load trip %q: %w", name, err)
	}
	return t, nil
}

func (s *TripService) mutate(ctx context.Context, name, trigger string, fn func(*domain.Trip) error) (domain.Trip, error) {
	name = NormalizeName(name)
	if err := checkName(name); err != nil {
		return domain.Trip{}, err
	}
	t, err := s.load(ctx, name)
	if err != nil {
		return domain.Trip{}, err
	}
	t.Pack = NormalizePack(ToRaw(t.Pack))
	if err := fn(&t); err != nil {
		return domain.Trip{}, err
	}
	return t, s.persist(ctx, name, &t, trigger)
}

func (s *TripService) persist(ctx context.Context, name string, t *domain.Trip, trigger string) error {
	if err := checkName(name); err != nil {
		return err
	}
	t.SavedAt = s.now().UTC()
	if err := s.repo.SaveTrip(ctx, name, *t); err != nil {
		return fmt.Errorf("save trip %q: %w", name, err)
	}
	observability.ObserveSave(trigger)
	if err := s.repo.SetLastTrip(ctx, name); err != nil {
		log.Warn().Err(err).Str("trip", name).Msg("remember last trip failed")
	}
	log.Debug().Str("trip", name).Str("trigger", trigger).Int("stops", len(t.Stops)).Int("items", len(t.Pack)).Msg("trip saved")
	return nil
}
