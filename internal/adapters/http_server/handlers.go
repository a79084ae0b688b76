package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"routegen/internal/app"
	"routegen/internal/domain"
)

const (
	msgInsufficientStops = "Bitte mind. 2 Orte eingeben."
	msgNoStops           = "Bitte zuerst Stops erfassen (Route-Tab)."
	msgNoSpotStops       = "Erfasch zuerst Stops im Route-Tab."

	maxBodyBytes = 1 << 20
)

type Handlers struct {
	Trips   *app.TripService
	Suggest *app.SuggestService
	Weather *app.WeatherService
	Geo     *app.CachedGeocoder
	Routes  *app.RouteFormatter
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/last-trip", h.getLastTrip)
		r.Put("/last-trip", h.putLastTrip)

		r.Post("/route", h.buildRoute)
		r.Get("/suggest", h.suggest)
		r.Get("/presets", h.listPresets)
		r.Delete("/coords/{place}", h.invalidateCoord)

		r.Route("/trips/{name}", func(r chi.Router) {
			r.Get("/", h.getTrip)
			r.Put("/", h.putTrip)
			r.Get("/weather", h.weather)
			r.Get("/spots", h.spots)

			r.Delete("/pack", h.clearPack)
			r.Post("/pack/preset", h.applyPreset)
			r.Post("/pack/items", h.addItem)
			r.Patch("/pack/items/{id}", h.updateItem)
			r.Delete("/pack/items/{id}", h.removeItem)
			r.Get("/pack/export", h.exportPack)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStops):
		writeProblem(w, http.StatusUnprocessableEntity, "Insufficient stops", msgInsufficientStops)
	case errors.Is(err, domain.ErrNoStops):
		writeProblem(w, http.StatusUnprocessableEntity, "No stops", msgNoStops)
	case errors.Is(err, domain.ErrEmptyText), errors.Is(err, domain.ErrInvalidQuantity):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid item", err.Error())
	case errors.Is(err, domain.ErrReservedName):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid trip name", err.Error())
	case errors.Is(err, domain.ErrUnknownPreset):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "pack item not found")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers conditional GETs with 304 when the ETag matches.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if r.Method == http.MethodGet && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

// pathParam returns the decoded path parameter. chi matches on RawPath when
// the request carries one, so only then is the value still escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// ---- trips ----

type tripResponse struct {
	app.TripView
	PackHint string `json:"packHint,omitempty"`
}

func (h *Handlers) getTrip(w http.ResponseWriter, r *http.Request) {
	v, err := h.Trips.Load(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := tripResponse{TripView: v}
	if len(v.Pack) == 0 {
		resp.PackHint = app.EmptyPackMessage
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) putTrip(w http.ResponseWriter, r *http.Request) {
	var in app.TripInput
	if !decode(w, r, &in) {
		return
	}
	name := pathParam(r, "name")
	if _, err := h.Trips.Save(r.Context(), name, in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Trips.Load(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tripResponse{TripView: v})
}

type lastTripBody struct {
	Name string `json:"name"`
}

func (h *Handlers) getLastTrip(w http.ResponseWriter, r *http.Request) {
	name, err := h.Trips.LastTrip(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lastTripBody{Name: name})
}

func (h *Handlers) putLastTrip(w http.ResponseWriter, r *http.Request) {
	var in lastTripBody
	if !decode(w, r, &in) {
		return
	}
	if err := h.Trips.RememberTrip(r.Context(), in.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lastTripBody{Name: app.NormalizeName(in.Name)})
}

// ---- route, suggestions, presets ----

type routeRequest struct {
	FreeText string   `json:"freeText"`
	Stops    []string `json:"stops"`
}

func (h *Handlers) buildRoute(w http.ResponseWriter, r *http.Request) {
	var in routeRequest
	if !decode(w, r, &in) {
		return
	}
	route, err := h.Routes.Build(app.SelectStops(in.Stops, in.FreeText))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, route)
}

func (h *Handlers) suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	labels := h.Suggest.Suggest(r.Context(), q.Get("field"), q.Get("q"))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, http.StatusOK, map[string][]string{"suggestions": labels})
}

func (h *Handlers) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{"presets": app.PresetNames()})
}

// ---- packing list ----

type packResponse struct {
	Pack   []domain.PackItem `json:"pack"`
	Groups []app.PackGroup   `json:"groups"`
}

func (h *Handlers) applyPreset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Preset string `json:"preset"`
	}
	if !decode(w, r, &in) {
		return
	}
	items, err := h.Trips.ApplyPreset(r.Context(), pathParam(r, "name"), strings.TrimSpace(in.Preset))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, packResponse{Pack: items, Groups: app.GroupPack(items)})
}

type addItemRequest struct {
	Category string `json:"cat"`
	Text     string `json:"text"`
	Qty      *int   `json:"qty"`
}

func (h *Handlers) addItem(w http.ResponseWriter, r *http.Request) {
	var in addItemRequest
	if !decode(w, r, &in) {
		return
	}
	qty := 1
	if in.Qty != nil {
		qty = *in.Qty
	}
	it, err := h.Trips.AddItem(r.Context(), pathParam(r, "name"), in.Category, in.Text, qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, it)
}

func (h *Handlers) updateItem(w http.ResponseWriter, r *http.Request) {
	var p app.ItemPatch
	if !decode(w, r, &p) {
		return
	}
	it, err := h.Trips.UpdateItem(r.Context(), pathParam(r, "name"), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, it)
}

func (h *Handlers) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Trips.RemoveItem(r.Context(), pathParam(r, "name"), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) clearPack(w http.ResponseWriter, r *http.Request) {
	if err := h.Trips.ClearPack(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) exportPack(w http.ResponseWriter, r *http.Request) {
	file, body, err := h.Trips.ExportPack(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		log.Error().Err(err).Msg("failed to write export body")
	}
}

// ---- weather and spots ----

type weatherResponse struct {
	app.WeatherReport
	Note string `json:"note,omitempty"`
}

func (h *Handlers) weather(w http.ResponseWriter, r *http.Request) {
	stops, err := h.Trips.Stops(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.Weather.Lookup(r.Context(), stops)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := weatherResponse{WeatherReport: rep}
	if rep.Total > len(rep.Rows) {
		resp.Note = "Hinweis: nur erste " + strconv.Itoa(len(rep.Rows)) + " Stops geladen."
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type spotsResponse struct {
	Cards   []app.SpotCard `json:"cards"`
	Message string         `json:"message,omitempty"`
}

func (h *Handlers) spots(w http.ResponseWriter, r *http.Request) {
	stops, err := h.Trips.Stops(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := spotsResponse{Cards: h.Routes.SpotLinks(stops)}
	if len(resp.Cards) == 0 {
		resp.Message = msgNoSpotStops
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) invalidateCoord(w http.ResponseWriter, r *http.Request) {
	if err := h.Geo.Invalidate(r.Context(), pathParam(r, "place")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
