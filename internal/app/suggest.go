package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"routegen/internal/adapters/observability"
	"routegen/internal/domain"
	"routegen/internal/latest"
)

const (
	MinQueryLen    = 3
	MaxSuggestions = 6
)

// SuggestService serves autocomplete for HTTP clients. Each field id keeps
// at most one outstanding upstream lookup; a newer query for the same field
// cancels the older one, which then answers with an empty list.
type SuggestService struct {
	src   domain.Suggester
	cache domain.Cache
	lang  string
	ttl   time.Duration

	mu     sync.Mutex
	fields map[string]*fieldRunner
}

type fieldRunner struct {
	r    *latest.Runner[[]string]
	refs int
}

// NewSuggestService caches results for ttl; a nil cache disables caching.
func NewSuggestService(src domain.Suggester, c domain.Cache, lang string, ttl time.Duration) *SuggestService {
	return &SuggestService{src: src, cache: c, lang: lang, ttl: ttl, fields: map[string]*fieldRunner{}}
}

// Suggest never fails; canceled or failed lookups yield an empty list.
func (s *SuggestService) Suggest(ctx context.Context, field, q string) []string {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLen {
		s.cancelField(field)
		return []string{}
	}

	key := "suggest:" + s.lang + ":" + strings.ToLower(q)
	if s.cache != nil {
		s.cancelField(field)
		var hit []string
		if ok, _ := s.cache.Get(ctx, key, &hit); ok {
			return capLabels(hit)
		}
	}

	fr := s.acquire(field)
	defer s.release(field, fr)

	out, err := fr.r.Do(ctx, func(ctx context.Context) ([]string, error) {
		return s.src.Suggest(ctx, q, MaxSuggestions)
	})
	switch {
	case errors.Is(err, latest.ErrSuperseded):
		log.Debug().Str("field", field).Str("q", q).Msg("suggest superseded")
		return []string{}
	case err != nil:
		log.Debug().Err(err).Str("field", field).Str("q", q).Msg("suggest failed")
		return []string{}
	}

	out = capLabels(out)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, int(s.ttl.Seconds())); err != nil {
			observability.ObserveCache("suggest", "set_error")
		}
	}
	return out
}

func (s *SuggestService) acquire(field string) *fieldRunner {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.fields[field]
	if !ok {
		fr = &fieldRunner{r: latest.New[[]string](0)}
		s.fields[field] = fr
	}
	fr.refs++
	return fr
}

func (s *SuggestService) release(field string, fr *fieldRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr.refs--
	if fr.refs == 0 && s.fields[field] == fr {
		delete(s.fields, field)
	}
}

func (s *SuggestService) cancelField(field string) {
	s.mu.Lock()
	fr := s.fields[field]
	s.mu.Unlock()
	if fr != nil {
		fr.r.Cancel()
	}
}

func capLabels(in []string) []string {
	out := make([]string, 0, MaxSuggestions)
	for _, l := range in {
		if l == "" {
			continue
		}
		out = append(out, l)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
