package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"routegen/internal/domain"
	"routegen/internal/latest"
)

const (
	DefaultDebounce   = 250 * time.Millisecond
	DefaultBlurGrace  = 150 * time.Millisecond
	emptyTripFields   = 2
)

// StopField is the editing state of one itinerary stop: its value and the
// autocomplete list shown under it.
//
// Lock order is runner before field: suggestions are delivered while the
// runner lock is held, so the field never calls the runner with mu held.
type StopField struct {
	src    domain.Suggester
	onEdit func(string)
	grace  time.Duration
	runner *latest.Runner[[]string]

	mu          sync.Mutex
	value       string
	suggestions []string
	visible     bool
	blur        *time.Timer
}

type FieldOption func(*fieldConfig)

type fieldConfig struct {
	delay time.Duration
	grace time.Duration
}

// WithDebounce sets the quiet period before a lookup starts.
func WithDebounce(d time.Duration) FieldOption { return func(c *fieldConfig) { c.delay = d } }

// WithBlurGrace sets how long the list stays selectable after Blur.
func WithBlurGrace(d time.Duration) FieldOption { return func(c *fieldConfig) { c.grace = d } }

// NewStopField calls onEdit with the new value after every change.
func NewStopField(src domain.Suggester, initial string, onEdit func(string), opts ...FieldOption) *StopField {
	cfg := fieldConfig{delay: DefaultDebounce, grace: DefaultBlurGrace}
	for _, o := range opts {
		o(&cfg)
	}
	if onEdit == nil {
		onEdit = func(string) {}
	}
	return &StopField{
		src:    src,
		onEdit: onEdit,
		grace:  cfg.grace,
		runner: latest.New[[]string](cfg.delay),
		value:  initial,
	}
}

// Input records a keystroke. Queries shorter than three characters hide the
// list and cancel any pending lookup.
func (f *StopField) Input(ctx context.Context, text string) {
	f.mu.Lock()
	f.value = text
	f.mu.Unlock()
	f.onEdit(text)

	q := strings.TrimSpace(text)
	if len([]rune(q)) < MinQueryLen {
		f.runner.Cancel()
		f.hide()
		return
	}

	f.runner.Schedule(ctx, func(ctx context.Context) ([]string, error) {
		out, err := f.src.Suggest(ctx, q, MaxSuggestions)
		if err != nil {
			log.Debug().Err(err).Str("q", q).Msg("stop suggestions failed")
		}
		return out, err
	}, f.show)
}

// Suggestions returns the visible list, or nil when hidden.
func (f *StopField) Suggestions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.visible {
		return nil
	}
	return append([]string(nil), f.suggestions...)
}

// Select takes one of the visible labels as the new value. It reports false
// when label is not currently offered.
func (f *StopField) Select(label string) bool {
	f.mu.Lock()
	ok := false
	if f.visible {
		for _, s := range f.suggestions {
			if s == label {
				ok = true
				break
			}
		}
	}
	if !ok {
		f.mu.Unlock()
		return false
	}
	f.value = label
	f.visible = false
	f.suggestions = nil
	f.stopBlurLocked()
	f.mu.Unlock()

	f.runner.Cancel()
	f.onEdit(label)
	return true
}

// Blur hides the list once the grace period has passed.
func (f *StopField) Blur() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopBlurLocked()
	f.blur = time.AfterFunc(f.grace, f.hide)
}

func (f *StopField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Close drops pending work.
func (f *StopField) Close() {
	f.runner.Cancel()
	f.mu.Lock()
	f.stopBlurLocked()
	f.mu.Unlock()
}

func (f *StopField) show(labels []string) {
	labels = capLabels(labels)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestions = labels
	f.visible = len(labels) > 0
}

func (f *StopField) hide() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = false
	f.suggestions = nil
}

func (f *StopField) stopBlurLocked() {
	if f.blur != nil {
		f.blur.Stop()
		f.blur = nil
	}
}

// BuildStopFields creates one field per stop, or two empty fields when there
// are no stops. onEdit receives
// all current values whenever any field changes.
func BuildStopFields(src domain.Suggester, stops []string, onEdit func([]string), opts ...FieldOption) []*StopField {
	n := len(stops)
	if n == 0 {
		n = emptyTripFields
	}
	fields := make([]*StopField, n)
	notify := func(string) {
		if onEdit == nil {
			return
		}
		vals := make([]string, len(fields))
		for i, fl := range fields {
			vals[i] = fl.Value()
		}
		onEdit(vals)
	}
	for i := range fields {
		initial := ""
		if i < len(stops) {
			initial = stops[i]
		}
		fields[i] = NewStopField(src, initial, notify, opts...)
	}
	return fields
}
