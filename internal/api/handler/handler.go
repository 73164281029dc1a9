// Package handler provides HTTP handlers for the public API endpoints. The
// search endpoints are a thin shell over the query service; venue and
// health endpoints read the catalogue and pool directly.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sportscanner/app-crawlers/internal/api/respond"
	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/db"
	"github.com/sportscanner/app-crawlers/internal/geo"
	"github.com/sportscanner/app-crawlers/internal/query"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool      *db.Pool
	catalogue *catalogue.Catalogue
	search    *query.Service
	geocoder  *geo.Geocoder
	cfg       *config.Config
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, cat *catalogue.Catalogue, search *query.Service, geocoder *geo.Geocoder, cfg *config.Config) *Handler {
	return &Handler{pool: pool, catalogue: cat, search: search, geocoder: geocoder, cfg: cfg}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Sportscanner API",
		"version": "2.0.0",
		"status":  "running",
		"sports":  config.AllSports(),
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetVenues lists the venue catalogue.
func (h *Handler) GetVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.catalogue.ListAll(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "VENUES_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"size":      len(venues),
		"venues":    venues,
	})
}

// GetVenuesNear returns venues within a radius of a postcode, with
// distances.
func (h *Handler) GetVenuesNear(w http.ResponseWriter, r *http.Request) {
	postcode := r.URL.Query().Get("postcode")
	radius := parseFloatOr(r.URL.Query().Get("distance"), 5)
	sport, err := config.ParseSport(r.URL.Query().Get("sport"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SPORT", err.Error())
		return
	}

	coords, err := h.geocoder.Geocode(r.Context(), postcode)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_POSTCODE",
			postcode+" is not a valid UK postcode")
		return
	}
	nearby, err := h.catalogue.WithinRadius(r.Context(), coords.Latitude, coords.Longitude, radius, sport)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "VENUES_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, nearby)
}

// searchRequest is the POST body for the search endpoint.
type searchRequest struct {
	Postcode  string  `json:"postcode"`
	Radius    float64 `json:"radius"`
	TimeRange struct {
		Starting string `json:"starting"`
		Ending   string `json:"ending"`
	} `json:"timeRange"`
	SpecifiedVenues []string `json:"specifiedVenues"`
	SortBy          string   `json:"sortBy"`
}

// Search returns grouped court availability for a sport/date.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	sport, err := config.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SPORT", err.Error())
		return
	}
	date, err := time.Parse(crawler.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	startTime, err := crawler.ParseClock(orDefault(req.TimeRange.Starting, "00:00"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_TIME", err.Error())
		return
	}
	endTime, err := crawler.ParseClock(orDefault(req.TimeRange.Ending, "23:59"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_TIME", err.Error())
		return
	}
	sortBy, err := query.ParseSortBy(req.SortBy)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SORT", err.Error())
		return
	}

	groups, err := h.search.Search(r.Context(), query.Params{
		Sport:           sport,
		Date:            date,
		Postcode:        req.Postcode,
		RadiusMiles:     req.Radius,
		StartTime:       startTime,
		EndTime:         endTime,
		SpecifiedVenues: req.SpecifiedVenues,
		SortBy:          sortBy,
	})
	if errors.Is(err, geo.ErrInvalidPostcode) {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_POSTCODE",
			req.Postcode+" is not a valid UK postcode. Try changing the postcode to another one.")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	if groups == nil {
		groups = []query.VenueGroup{}
	}
	respond.WriteJSONObject(w, http.StatusOK, groups)
}

// SearchVenue returns raw bookable slots for one venue on one date.
func (h *Handler) SearchVenue(w http.ResponseWriter, r *http.Request) {
	sport, err := config.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SPORT", err.Error())
		return
	}
	date, err := time.Parse(crawler.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
		return
	}
	compositeKey := chi.URLParam(r, "compositeKey")

	slots, err := h.search.SearchVenue(r.Context(), sport, date, compositeKey, time.Time{})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, slotsPayload(slots))
}

// ValidatePostcode checks postcode validity via the geocoding collaborator.
func (h *Handler) ValidatePostcode(w http.ResponseWriter, r *http.Request) {
	postcode := r.URL.Query().Get("postcode")
	_, err := h.geocoder.Geocode(r.Context(), postcode)
	respond.WriteJSONObject(w, http.StatusOK, map[string]bool{"valid": err == nil})
}

// slotsPayload renders slots with wire-format dates and clock times.
func slotsPayload(slots []crawler.Slot) []map[string]interface{} {
	payload := make([]map[string]interface{}, 0, len(slots))
	for _, s := range slots {
		payload = append(payload, map[string]interface{}{
			"composite_key":  s.CompositeKey,
			"category":       s.Category,
			"date":           s.Date.Format(crawler.DateFormat),
			"starting_time":  s.StartingTime.String(),
			"ending_time":    s.EndingTime.String(),
			"price":          s.Price,
			"spaces":         s.Spaces,
			"last_refreshed": s.LastRefreshed.UTC().Format(time.RFC3339),
			"booking_url":    s.BookingURL,
		})
	}
	return payload
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return value
}
